package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asanchezr/viaticos/internal/application/port"
	appwf "github.com/asanchezr/viaticos/internal/application/workflow"
	"github.com/asanchezr/viaticos/internal/domain/entity"
	domainwf "github.com/asanchezr/viaticos/internal/domain/workflow"
)

// ApprovalService drives the server-confirmed lifecycle of submitted requests:
// PENDING -> APPROVED | REJECTED, terminal once decided.
type ApprovalService interface {
	Get(ctx context.Context, id int64) (*entity.ExpenseRequest, error)
	GetByTicket(ctx context.Context, ticket string) (*entity.ExpenseRequest, error)
	ListPending(ctx context.Context, limit, offset int) ([]*entity.ExpenseRequest, error)
	Approve(ctx context.Context, id, managerID, expectedVersion int64) (*entity.ExpenseRequest, error)
	Reject(ctx context.Context, id, managerID, expectedVersion int64) (*entity.ExpenseRequest, error)
	RequestApprovalEmail(ctx context.Context, id int64) error
	History(ctx context.Context, id int64) ([]*entity.ApprovalHistory, error)
}

type approvalServiceImpl struct {
	requestRepo   port.RequestRepository
	historyRepo   port.HistoryRepository
	referenceRepo port.ReferenceRepository
	mailer        port.Mailer
	txManager     port.TransactionManager
	logger        Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	requestRepo port.RequestRepository,
	historyRepo port.HistoryRepository,
	referenceRepo port.ReferenceRepository,
	mailer port.Mailer,
	txManager port.TransactionManager,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		requestRepo:   requestRepo,
		historyRepo:   historyRepo,
		referenceRepo: referenceRepo,
		mailer:        mailer,
		txManager:     txManager,
		logger:        logger,
	}
}

// Get retrieves a request with its nested details.
func (s *approvalServiceImpl) Get(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get request", "error", err, "id", id)
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %d", ErrRequestNotFound, id)
	}
	return req, nil
}

// GetByTicket retrieves a request by its allocated ticket number.
func (s *approvalServiceImpl) GetByTicket(ctx context.Context, ticket string) (*entity.ExpenseRequest, error) {
	req, err := s.requestRepo.GetByTicketNumber(ctx, ticket)
	if err != nil {
		s.logger.Error("Failed to get request by ticket", "error", err, "ticket_number", ticket)
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: ticket %s", ErrRequestNotFound, ticket)
	}
	return req, nil
}

// ListPending retrieves the paginated queue of requests awaiting a decision.
func (s *approvalServiceImpl) ListPending(ctx context.Context, limit, offset int) ([]*entity.ExpenseRequest, error) {
	requests, err := s.requestRepo.ListByState(ctx, domainwf.StatePending.String(), limit, offset)
	if err != nil {
		s.logger.Error("Failed to list pending requests", "error", err, "limit", limit, "offset", offset)
		return nil, err
	}
	return requests, nil
}

// Approve moves a pending request to APPROVED.
func (s *approvalServiceImpl) Approve(ctx context.Context, id, managerID, expectedVersion int64) (*entity.ExpenseRequest, error) {
	return s.decide(ctx, id, managerID, expectedVersion, domainwf.TriggerApprove)
}

// Reject moves a pending request to REJECTED.
func (s *approvalServiceImpl) Reject(ctx context.Context, id, managerID, expectedVersion int64) (*entity.ExpenseRequest, error) {
	return s.decide(ctx, id, managerID, expectedVersion, domainwf.TriggerReject)
}

// decide fires the trigger through the approval state machine and persists the
// transition with an optimistic version check, recording the action in the
// approval history. A request not in PENDING rejects the action without any
// state change.
func (s *approvalServiceImpl) decide(ctx context.Context, id, managerID, expectedVersion int64, trigger domainwf.Trigger) (*entity.ExpenseRequest, error) {
	var updated *entity.ExpenseRequest

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.requestRepo.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("get request: %w", err)
		}
		if req == nil {
			return fmt.Errorf("%w: %d", ErrRequestNotFound, id)
		}

		machine := appwf.BuildApprovalStateMachine(domainwf.State(req.State))
		if err := machine.Fire(txCtx, trigger); err != nil {
			if errors.Is(err, domainwf.ErrInvalidTransition) {
				return fmt.Errorf("%w: request %d is %s", ErrNotPending, id, req.State)
			}
			return err
		}
		newState := machine.State().String()

		if err := s.requestRepo.UpdateState(txCtx, id, newState, expectedVersion); err != nil {
			return fmt.Errorf("update state: %w", err)
		}

		history := &entity.ApprovalHistory{
			RequestID:     id,
			ManagerID:     managerID,
			PreviousState: req.State,
			NewState:      newState,
			ActionType:    trigger.String(),
			Timestamp:     time.Now(),
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		req.State = newState
		req.Version = expectedVersion + 1
		updated = req
		return nil
	})

	if err != nil {
		s.logger.Error("Approval action failed", "error", err, "id", id, "trigger", trigger.String(), "manager_id", managerID)
		return nil, err
	}

	s.logger.Info("Approval action applied", "id", id, "state", updated.State, "manager_id", managerID)
	return updated, nil
}

// RequestApprovalEmail notifies the manager responsible for the request's
// cost center. Available only while the request is pending; no state change.
func (s *approvalServiceImpl) RequestApprovalEmail(ctx context.Context, id int64) error {
	req, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if req.State != domainwf.StatePending.String() {
		return fmt.Errorf("%w: request %d is %s", ErrNotPending, id, req.State)
	}

	costCenter, err := s.referenceRepo.GetCostCenter(ctx, req.CostCenterCode)
	if err != nil {
		return fmt.Errorf("get cost center: %w", err)
	}
	if costCenter == nil {
		return fmt.Errorf("%w: %s", ErrCostCenterNotFound, req.CostCenterCode)
	}

	worker, err := s.referenceRepo.GetWorker(ctx, req.WorkerID)
	if err != nil {
		return fmt.Errorf("get worker: %w", err)
	}
	manager, err := s.referenceRepo.GetWorker(ctx, costCenter.ManagerID)
	if err != nil {
		return fmt.Errorf("get manager: %w", err)
	}
	if manager == nil {
		return fmt.Errorf("%w: manager %d", ErrWorkerNotFound, costCenter.ManagerID)
	}

	if err := s.mailer.SendApprovalRequest(ctx, req, worker, manager, costCenter); err != nil {
		s.logger.Error("Failed to send approval email", "error", err, "id", id, "manager_id", manager.ID)
		return fmt.Errorf("send approval email: %w", err)
	}

	s.logger.Info("Approval email sent", "id", id, "manager_id", manager.ID)
	return nil
}

// History retrieves the approval history of a request.
func (s *approvalServiceImpl) History(ctx context.Context, id int64) ([]*entity.ApprovalHistory, error) {
	history, err := s.historyRepo.GetByRequestID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get approval history", "error", err, "id", id)
		return nil, err
	}
	return history, nil
}
