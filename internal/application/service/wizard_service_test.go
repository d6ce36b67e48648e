package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/asanchezr/viaticos/internal/domain/draft"
	"github.com/asanchezr/viaticos/internal/domain/entity"
)

// pngHeader is a minimal PNG signature, enough for content sniffing
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func validItem() draft.LineItem {
	return draft.LineItem{
		Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DayRate:     decimal.NewFromInt(50),
		DayCount:    2,
		Category:    "Lodging",
		Description: "Hotel two nights",
		Destination: "Arequipa",
	}
}

func newWizardService(requestRepo *mockRequestRepo, referenceRepo *mockReferenceRepo) WizardService {
	if requestRepo == nil {
		requestRepo = &mockRequestRepo{}
	}
	if referenceRepo == nil {
		referenceRepo = &mockReferenceRepo{}
	}
	submission := NewSubmissionService(requestRepo, newMockTokenRepo(), &mockTicketAllocator{}, &mockTxManager{}, noopLogger{})
	return NewWizardService(requestRepo, referenceRepo, submission, noopLogger{})
}

// advance walks the session from the cost-center stage to confirmation,
// filling each stage along the way.
func advanceToConfirmation(t *testing.T, svc WizardService, sessionID string) {
	t.Helper()
	ctx := context.Background()

	if err := svc.SelectCostCenter(ctx, sessionID, "CC-100"); err != nil {
		t.Fatalf("SelectCostCenter() error = %v", err)
	}
	if _, err := svc.Next(ctx, sessionID); err != nil {
		t.Fatalf("Next() from cost center error = %v", err)
	}

	if err := svc.SelectWorker(ctx, sessionID, 3); err != nil {
		t.Fatalf("SelectWorker() error = %v", err)
	}
	if _, err := svc.Next(ctx, sessionID); err != nil {
		t.Fatalf("Next() from worker error = %v", err)
	}

	if _, err := svc.AddItem(ctx, sessionID, validItem()); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if _, err := svc.Next(ctx, sessionID); err != nil {
		t.Fatalf("Next() from expenses error = %v", err)
	}

	if _, err := svc.Next(ctx, sessionID); err != nil {
		t.Fatalf("Next() from attachments error = %v", err)
	}
}

func TestWizardService_StartSession_New(t *testing.T) {
	svc := newWizardService(nil, nil)

	state, outcome, err := svc.StartSession(context.Background(), 0)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if outcome != LoadOutcomeNew {
		t.Errorf("outcome = %v, want NEW", outcome)
	}
	if state.Stage != "COST_CENTER" {
		t.Errorf("stage = %v, want COST_CENTER", state.Stage)
	}
	if len(state.Items) != 0 {
		t.Errorf("items = %d, want 0", len(state.Items))
	}
}

func TestWizardService_StartSession_LoadExisting(t *testing.T) {
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
			return &entity.ExpenseRequest{
				ID:             id,
				CostCenterCode: "CC-100",
				WorkerID:       3,
				State:          "PENDING",
				Version:        2,
				Details: []*entity.ExpenseDetail{
					{Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), DayRate: decimal.NewFromInt(50), DayCount: 2},
				},
			}, nil
		},
	}

	svc := newWizardService(requestRepo, nil)

	state, outcome, err := svc.StartSession(context.Background(), 5)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if outcome != LoadOutcomeLoaded {
		t.Errorf("outcome = %v, want LOADED", outcome)
	}
	if state.RequestID != 5 {
		t.Errorf("request id = %d, want 5", state.RequestID)
	}
	if len(state.Items) != 1 {
		t.Errorf("items = %d, want 1", len(state.Items))
	}
}

func TestWizardService_StartSession_NotFound(t *testing.T) {
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
			return nil, nil
		},
	}

	svc := newWizardService(requestRepo, nil)

	state, outcome, err := svc.StartSession(context.Background(), 99)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if outcome != LoadOutcomeNotFound {
		t.Errorf("outcome = %v, want NOT_FOUND", outcome)
	}
	if state != nil {
		t.Errorf("state = %+v, want nil", state)
	}
}

func TestWizardService_StartSession_LoadFailure(t *testing.T) {
	loadErr := errors.New("disk gone")
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
			return nil, loadErr
		},
	}

	svc := newWizardService(requestRepo, nil)

	if _, _, err := svc.StartSession(context.Background(), 5); !errors.Is(err, loadErr) {
		t.Errorf("StartSession() error = %v, want wrapped %v", err, loadErr)
	}
}

func TestWizardService_StageGating(t *testing.T) {
	svc := newWizardService(nil, nil)
	ctx := context.Background()

	state, _, err := svc.StartSession(ctx, 0)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	id := state.ID

	// Empty stage one: no advancing
	if _, err := svc.Next(ctx, id); !errors.Is(err, ErrStageIncomplete) {
		t.Errorf("Next() without cost center error = %v, want ErrStageIncomplete", err)
	}

	if err := svc.SelectCostCenter(ctx, id, "CC-100"); err != nil {
		t.Fatalf("SelectCostCenter() error = %v", err)
	}
	if _, err := svc.Next(ctx, id); err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	// Stage two blocks until a worker is picked
	if _, err := svc.Next(ctx, id); !errors.Is(err, ErrStageIncomplete) {
		t.Errorf("Next() without worker error = %v, want ErrStageIncomplete", err)
	}
	if err := svc.SelectWorker(ctx, id, 3); err != nil {
		t.Fatalf("SelectWorker() error = %v", err)
	}
	if _, err := svc.Next(ctx, id); err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	// Stage three blocks with an empty ledger
	if _, err := svc.Next(ctx, id); !errors.Is(err, ErrStageIncomplete) {
		t.Errorf("Next() without items error = %v, want ErrStageIncomplete", err)
	}
}

func TestWizardService_ItemEditBlocksNavigation(t *testing.T) {
	svc := newWizardService(nil, nil)
	ctx := context.Background()

	state, _, _ := svc.StartSession(ctx, 0)
	id := state.ID

	svc.SelectCostCenter(ctx, id, "CC-100")
	svc.Next(ctx, id)
	svc.SelectWorker(ctx, id, 3)
	svc.Next(ctx, id)
	if _, err := svc.AddItem(ctx, id, validItem()); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	if err := svc.BeginItemEdit(id); err != nil {
		t.Fatalf("BeginItemEdit() error = %v", err)
	}

	if _, err := svc.Next(ctx, id); !errors.Is(err, ErrStageIncomplete) {
		t.Errorf("Next() mid-edit error = %v, want ErrStageIncomplete", err)
	}
	if _, err := svc.Prev(ctx, id); !errors.Is(err, ErrStageIncomplete) {
		t.Errorf("Prev() mid-edit error = %v, want ErrStageIncomplete", err)
	}

	if err := svc.CancelItemEdit(id); err != nil {
		t.Fatalf("CancelItemEdit() error = %v", err)
	}
	if _, err := svc.Next(ctx, id); err != nil {
		t.Errorf("Next() after cancel error = %v", err)
	}
}

func TestWizardService_BackFromConfirmation(t *testing.T) {
	svc := newWizardService(nil, nil)
	ctx := context.Background()

	state, _, _ := svc.StartSession(ctx, 0)
	id := state.ID
	advanceToConfirmation(t, svc, id)

	// The review stage still allows stepping back to fix the draft
	got, err := svc.Prev(ctx, id)
	if err != nil {
		t.Fatalf("Prev() from confirmation error = %v", err)
	}
	if got.Stage != "ATTACHMENTS" {
		t.Errorf("stage = %v, want ATTACHMENTS", got.Stage)
	}

	got, err = svc.Next(ctx, id)
	if err != nil {
		t.Fatalf("Next() back to confirmation error = %v", err)
	}
	if got.Stage != "CONFIRMATION" {
		t.Errorf("stage = %v, want CONFIRMATION", got.Stage)
	}

	if _, err := svc.Submit(ctx, id); err != nil {
		t.Errorf("Submit() after round trip error = %v", err)
	}
}

func TestWizardService_SignatureCapture(t *testing.T) {
	svc := newWizardService(nil, nil)
	ctx := context.Background()

	state, _, _ := svc.StartSession(ctx, 0)
	id := state.ID

	if err := svc.CaptureSignature(id, []byte("plain text, not an image"), "text/plain"); !errors.Is(err, draft.ErrNotImage) {
		t.Errorf("CaptureSignature() error = %v, want ErrNotImage", err)
	}

	if err := svc.CaptureSignature(id, pngHeader, "image/png"); err != nil {
		t.Fatalf("CaptureSignature() error = %v", err)
	}

	got, err := svc.GetSession(id)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if !got.HasSignature {
		t.Errorf("HasSignature = false, want true")
	}

	// A rejected replacement leaves the stored signature in place
	if err := svc.CaptureSignature(id, []byte("bogus"), ""); !errors.Is(err, draft.ErrNotImage) {
		t.Errorf("CaptureSignature() error = %v, want ErrNotImage", err)
	}
	got, _ = svc.GetSession(id)
	if !got.HasSignature {
		t.Errorf("HasSignature = false after rejected replacement, want true")
	}

	if err := svc.RemoveSignature(id); err != nil {
		t.Fatalf("RemoveSignature() error = %v", err)
	}
	got, _ = svc.GetSession(id)
	if got.HasSignature {
		t.Errorf("HasSignature = true after removal, want false")
	}
}

func TestWizardService_Submit_RequiresConfirmation(t *testing.T) {
	svc := newWizardService(nil, nil)
	ctx := context.Background()

	state, _, _ := svc.StartSession(ctx, 0)

	if _, err := svc.Submit(ctx, state.ID); !errors.Is(err, ErrNotConfirmation) {
		t.Errorf("Submit() error = %v, want ErrNotConfirmation", err)
	}
}

func TestWizardService_Submit(t *testing.T) {
	svc := newWizardService(nil, nil)
	ctx := context.Background()

	state, _, _ := svc.StartSession(ctx, 0)
	id := state.ID
	advanceToConfirmation(t, svc, id)

	req, err := svc.Submit(ctx, id)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if req.TicketNumber != "TCK-0001" {
		t.Errorf("ticket = %v, want TCK-0001", req.TicketNumber)
	}
	if want := decimal.NewFromInt(100); !req.SpentValue.Equal(want) {
		t.Errorf("spent value = %v, want %v", req.SpentValue, want)
	}

	// Session is gone after a successful submit
	if _, err := svc.GetSession(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSession() error = %v, want ErrSessionNotFound", err)
	}
}

func TestWizardService_CloseSession(t *testing.T) {
	svc := newWizardService(nil, nil)
	ctx := context.Background()

	state, _, _ := svc.StartSession(ctx, 0)

	if err := svc.CloseSession(state.ID); err != nil {
		t.Fatalf("CloseSession() error = %v", err)
	}
	if err := svc.CloseSession(state.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("CloseSession() twice error = %v, want ErrSessionNotFound", err)
	}
}

func TestWizardService_SelectUnknownReferences(t *testing.T) {
	referenceRepo := &mockReferenceRepo{
		getCostCenterFunc: func(ctx context.Context, code string) (*entity.CostCenter, error) {
			return nil, nil
		},
		getWorkerFunc: func(ctx context.Context, id int64) (*entity.Worker, error) {
			return nil, nil
		},
	}

	svc := newWizardService(nil, referenceRepo)
	ctx := context.Background()

	state, _, _ := svc.StartSession(ctx, 0)

	if err := svc.SelectCostCenter(ctx, state.ID, "CC-404"); !errors.Is(err, ErrCostCenterNotFound) {
		t.Errorf("SelectCostCenter() error = %v, want ErrCostCenterNotFound", err)
	}
	if err := svc.SelectWorker(ctx, state.ID, 404); !errors.Is(err, ErrWorkerNotFound) {
		t.Errorf("SelectWorker() error = %v, want ErrWorkerNotFound", err)
	}
}
