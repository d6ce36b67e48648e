package service

import (
	"context"
	"errors"
	"testing"

	"github.com/asanchezr/viaticos/internal/application/port"
	"github.com/asanchezr/viaticos/internal/domain/entity"
)

func newApprovalService(requestRepo *mockRequestRepo, historyRepo *mockHistoryRepo, referenceRepo *mockReferenceRepo, mailer *mockMailer) ApprovalService {
	if requestRepo == nil {
		requestRepo = &mockRequestRepo{}
	}
	if historyRepo == nil {
		historyRepo = &mockHistoryRepo{}
	}
	if referenceRepo == nil {
		referenceRepo = &mockReferenceRepo{}
	}
	if mailer == nil {
		mailer = &mockMailer{}
	}
	return NewApprovalService(requestRepo, historyRepo, referenceRepo, mailer, &mockTxManager{}, noopLogger{})
}

func TestApprovalService_Approve(t *testing.T) {
	var stateWritten string
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
			return &entity.ExpenseRequest{ID: id, State: "PENDING", Version: 1}, nil
		},
		updateStateFunc: func(ctx context.Context, id int64, state string, expectedVersion int64) error {
			stateWritten = state
			return nil
		},
	}
	historyRepo := &mockHistoryRepo{}

	svc := newApprovalService(requestRepo, historyRepo, nil, nil)

	req, err := svc.Approve(context.Background(), 1, 9, 1)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	if req.State != "APPROVED" {
		t.Errorf("Approve() state = %v, want APPROVED", req.State)
	}
	if stateWritten != "APPROVED" {
		t.Errorf("persisted state = %v, want APPROVED", stateWritten)
	}
	if req.Version != 2 {
		t.Errorf("Approve() version = %d, want 2", req.Version)
	}
	if len(historyRepo.entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(historyRepo.entries))
	}
	entry := historyRepo.entries[0]
	if entry.PreviousState != "PENDING" || entry.NewState != "APPROVED" || entry.ManagerID != 9 {
		t.Errorf("history entry = %+v", entry)
	}
}

func TestApprovalService_Reject(t *testing.T) {
	svc := newApprovalService(nil, nil, nil, nil)

	req, err := svc.Reject(context.Background(), 1, 9, 1)
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if req.State != "REJECTED" {
		t.Errorf("Reject() state = %v, want REJECTED", req.State)
	}
}

func TestApprovalService_DecideOnDecidedRequest(t *testing.T) {
	for _, state := range []string{"APPROVED", "REJECTED"} {
		t.Run(state, func(t *testing.T) {
			requestRepo := &mockRequestRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
					return &entity.ExpenseRequest{ID: id, State: state, Version: 2}, nil
				},
				updateStateFunc: func(ctx context.Context, id int64, s string, v int64) error {
					t.Errorf("UpdateState called on terminal request")
					return nil
				},
			}

			svc := newApprovalService(requestRepo, nil, nil, nil)

			if _, err := svc.Approve(context.Background(), 1, 9, 2); !errors.Is(err, ErrNotPending) {
				t.Errorf("Approve() error = %v, want ErrNotPending", err)
			}
			if _, err := svc.Reject(context.Background(), 1, 9, 2); !errors.Is(err, ErrNotPending) {
				t.Errorf("Reject() error = %v, want ErrNotPending", err)
			}
		})
	}
}

func TestApprovalService_Approve_VersionConflict(t *testing.T) {
	requestRepo := &mockRequestRepo{
		updateStateFunc: func(ctx context.Context, id int64, state string, expectedVersion int64) error {
			return port.ErrVersionConflict
		},
	}

	svc := newApprovalService(requestRepo, nil, nil, nil)

	if _, err := svc.Approve(context.Background(), 1, 9, 1); !errors.Is(err, port.ErrVersionConflict) {
		t.Errorf("Approve() error = %v, want ErrVersionConflict", err)
	}
}

func TestApprovalService_Get_NotFound(t *testing.T) {
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
			return nil, nil
		},
	}

	svc := newApprovalService(requestRepo, nil, nil, nil)

	if _, err := svc.Get(context.Background(), 42); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("Get() error = %v, want ErrRequestNotFound", err)
	}
}

func TestApprovalService_GetByTicket(t *testing.T) {
	requestRepo := &mockRequestRepo{
		getByTicketNumberFunc: func(ctx context.Context, ticket string) (*entity.ExpenseRequest, error) {
			if ticket != "TCK-0042" {
				return nil, nil
			}
			return &entity.ExpenseRequest{ID: 7, TicketNumber: ticket, State: "PENDING", Version: 1}, nil
		},
	}

	svc := newApprovalService(requestRepo, nil, nil, nil)

	req, err := svc.GetByTicket(context.Background(), "TCK-0042")
	if err != nil {
		t.Fatalf("GetByTicket() error = %v", err)
	}
	if req.ID != 7 {
		t.Errorf("GetByTicket() id = %d, want 7", req.ID)
	}

	if _, err := svc.GetByTicket(context.Background(), "TCK-9999"); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("GetByTicket() error = %v, want ErrRequestNotFound", err)
	}
}

func TestApprovalService_RequestApprovalEmail(t *testing.T) {
	mailer := &mockMailer{}
	referenceRepo := &mockReferenceRepo{
		getCostCenterFunc: func(ctx context.Context, code string) (*entity.CostCenter, error) {
			return &entity.CostCenter{Code: code, Name: "Operations", ManagerID: 9}, nil
		},
	}
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
			return &entity.ExpenseRequest{ID: id, CostCenterCode: "CC-100", WorkerID: 3, State: "PENDING", Version: 1}, nil
		},
	}

	svc := newApprovalService(requestRepo, nil, referenceRepo, mailer)

	if err := svc.RequestApprovalEmail(context.Background(), 1); err != nil {
		t.Fatalf("RequestApprovalEmail() error = %v", err)
	}
	if mailer.sent != 1 {
		t.Errorf("mailer sent = %d, want 1", mailer.sent)
	}
}

func TestApprovalService_RequestApprovalEmail_NotPending(t *testing.T) {
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
			return &entity.ExpenseRequest{ID: id, State: "APPROVED", Version: 2}, nil
		},
	}
	mailer := &mockMailer{}

	svc := newApprovalService(requestRepo, nil, nil, mailer)

	if err := svc.RequestApprovalEmail(context.Background(), 1); !errors.Is(err, ErrNotPending) {
		t.Errorf("RequestApprovalEmail() error = %v, want ErrNotPending", err)
	}
	if mailer.sent != 0 {
		t.Errorf("mailer sent = %d, want 0", mailer.sent)
	}
}
