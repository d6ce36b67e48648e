package draft

import (
	"github.com/google/uuid"

	"github.com/asanchezr/viaticos/internal/domain/entity"
)

// Draft is the wizard's working aggregate: the selections and line items
// accumulated during one creation/edit session. Owned by exactly one wizard
// session at a time and discarded on close or successful submit.
type Draft struct {
	CostCenter *entity.CostCenter
	Worker     *entity.Worker
	Ledger     *Ledger
	Signature  *Signature

	// RequestID is non-zero when the draft was loaded from a persisted
	// request for editing; Version carries that record's version for the
	// optimistic concurrency check on update.
	RequestID int64
	Version   int64

	itemEditing bool
}

// New creates an empty draft
func New() *Draft {
	return &Draft{Ledger: NewLedger()}
}

// FromRequest pre-populates a draft from a persisted request record.
func FromRequest(req *entity.ExpenseRequest, costCenter *entity.CostCenter, worker *entity.Worker) *Draft {
	d := New()
	d.RequestID = req.ID
	d.Version = req.Version
	d.CostCenter = costCenter
	d.Worker = worker

	for _, detail := range req.Details {
		d.Ledger.items = append(d.Ledger.items, &LineItem{
			ID:          uuid.NewString(),
			Date:        detail.Date,
			DayRate:     detail.DayRate,
			DayCount:    detail.DayCount,
			Category:    detail.Category,
			Description: detail.Description,
			Destination: detail.Destination,
		})
	}

	if req.SignatureData != "" {
		d.Signature = &Signature{
			EncodedData: req.SignatureData,
			MimeType:    req.SignatureMime,
		}
	}

	return d
}

// BeginItemEdit marks a line item as mid-edit. While set, the wizard may not
// advance past or leave the expenses stage.
func (d *Draft) BeginItemEdit() {
	d.itemEditing = true
}

// EndItemEdit clears the mid-edit marker (edit saved or cancelled).
func (d *Draft) EndItemEdit() {
	d.itemEditing = false
}

// ItemEditing reports whether a line item is currently mid-edit.
func (d *Draft) ItemEditing() bool {
	return d.itemEditing
}

// CaptureSignature stores the file as the draft's sole signature, replacing
// any previous one. A rejected file leaves the existing signature unchanged.
func (d *Draft) CaptureSignature(data []byte, declaredType string) error {
	sig, err := CaptureSignature(data, declaredType)
	if err != nil {
		return err
	}
	d.Signature = sig
	return nil
}

// RemoveSignature clears the signature.
func (d *Draft) RemoveSignature() {
	d.Signature = nil
}

// Reset discards all accumulated state, returning the draft to empty.
func (d *Draft) Reset() {
	d.CostCenter = nil
	d.Worker = nil
	d.Ledger = NewLedger()
	d.Signature = nil
	d.RequestID = 0
	d.Version = 0
	d.itemEditing = false
}
