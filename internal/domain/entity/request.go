package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseDetail is one dated expense entry of a persisted request. The wire
// vocabulary trip_amount (per-day rate) and day_amount (day count) is kept for
// compatibility with the existing backend records.
type ExpenseDetail struct {
	ID          int64           `json:"id"`
	RequestID   int64           `json:"request_id"`
	Date        time.Time       `json:"date"`
	DayRate     decimal.Decimal `json:"trip_amount"`
	DayCount    int             `json:"day_amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Destination string          `json:"destination"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Subtotal returns day rate times day count. Never negative: malformed
// entries contribute zero.
func (d *ExpenseDetail) Subtotal() decimal.Decimal {
	if d.DayCount <= 0 || d.DayRate.Sign() < 0 {
		return decimal.Zero
	}
	return d.DayRate.Mul(decimal.NewFromInt(int64(d.DayCount)))
}

// ExpenseRequest is a persisted travel-expense reimbursement request. Created
// once by the submission pipeline; its State is thereafter mutated only by the
// approval lifecycle and is terminal once APPROVED or REJECTED. Version backs
// optimistic concurrency control on updates and approval actions.
type ExpenseRequest struct {
	ID             int64            `json:"id"`
	TicketNumber   string           `json:"ticket_number"`
	CostCenterCode string           `json:"cost_center_code"`
	WorkerID       int64            `json:"worker_id"`
	SpentValue     decimal.Decimal  `json:"spent_value"`
	EmissionDate   time.Time        `json:"emission_date"`
	State          string           `json:"state"`
	SignatureData  string           `json:"worker_signature,omitempty"`
	SignatureMime  string           `json:"signature_mime,omitempty"`
	Version        int64            `json:"version"`
	Details        []*ExpenseDetail `json:"details"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ApprovalHistory records one approval lifecycle action on a request.
type ApprovalHistory struct {
	ID            int64     `json:"id"`
	RequestID     int64     `json:"request_id"`
	ManagerID     int64     `json:"manager_id"`
	PreviousState string    `json:"previous_state"`
	NewState      string    `json:"new_state"`
	ActionType    string    `json:"action_type"`
	Note          string    `json:"note,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
