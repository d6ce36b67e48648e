package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asanchezr/viaticos/internal/application/port"
	"github.com/asanchezr/viaticos/internal/domain/draft"
	"github.com/asanchezr/viaticos/internal/domain/entity"
	"github.com/asanchezr/viaticos/internal/domain/workflow"
)

// SubmissionService persists a finished draft as an expense request.
// Submission is an explicit command, idempotent per token: replaying a token
// returns the already-persisted request instead of submitting again.
type SubmissionService interface {
	Submit(ctx context.Context, d *draft.Draft, token string) (*entity.ExpenseRequest, error)
}

type submissionServiceImpl struct {
	requestRepo port.RequestRepository
	tokenRepo   port.TokenRepository
	tickets     port.TicketAllocator
	txManager   port.TransactionManager
	now         func() time.Time
	logger      Logger
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	requestRepo port.RequestRepository,
	tokenRepo port.TokenRepository,
	tickets port.TicketAllocator,
	txManager port.TransactionManager,
	logger Logger,
) SubmissionService {
	return &submissionServiceImpl{
		requestRepo: requestRepo,
		tokenRepo:   tokenRepo,
		tickets:     tickets,
		txManager:   txManager,
		now:         time.Now,
		logger:      logger,
	}
}

// Submit allocates a ticket number, assembles the persisted payload from the
// draft, and issues a create (or a version-checked update when the draft was
// loaded from an existing request). The token check, ticket allocation and
// persistence run in one transaction.
func (s *submissionServiceImpl) Submit(ctx context.Context, d *draft.Draft, token string) (*entity.ExpenseRequest, error) {
	if d.CostCenter == nil || d.Worker == nil {
		return nil, fmt.Errorf("%w: draft missing cost center or worker", ErrStageIncomplete)
	}
	if d.Ledger.Len() == 0 {
		return nil, fmt.Errorf("%w: draft has no line items", ErrStageIncomplete)
	}

	var req *entity.ExpenseRequest

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		boundID, err := s.tokenRepo.Consume(txCtx, token)
		if err != nil {
			if errors.Is(err, port.ErrDuplicateToken) {
				existing, getErr := s.requestRepo.GetByID(txCtx, boundID)
				if getErr != nil {
					return fmt.Errorf("get request for replayed token: %w", getErr)
				}
				if existing == nil {
					return fmt.Errorf("%w: token bound to missing request %d", ErrRequestNotFound, boundID)
				}
				s.logger.Info("Submission token replayed", "token", token, "request_id", boundID)
				req = existing
				return nil
			}
			return fmt.Errorf("consume token: %w", err)
		}

		ticket, err := s.tickets.AllocateTicket(txCtx)
		if err != nil {
			return fmt.Errorf("allocate ticket: %w", err)
		}

		req = s.assemble(d, ticket)

		if d.RequestID != 0 {
			req.ID = d.RequestID
			if err := s.requestRepo.Update(txCtx, req, d.Version); err != nil {
				return fmt.Errorf("update request %d: %w", d.RequestID, err)
			}
		} else {
			if err := s.requestRepo.Create(txCtx, req); err != nil {
				return fmt.Errorf("create request: %w", err)
			}
		}

		if err := s.tokenRepo.Bind(txCtx, token, req.ID); err != nil {
			return fmt.Errorf("bind token: %w", err)
		}
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to submit draft", "error", err, "token", token)
		return nil, err
	}

	s.logger.Info("Draft submitted",
		"request_id", req.ID,
		"ticket_number", req.TicketNumber,
		"spent_value", req.SpentValue.String())
	return req, nil
}

// assemble maps the draft to the persisted shape: spent value as the sum of
// line-item subtotals, emission timestamp now, item dates normalized to
// calendar date only.
func (s *submissionServiceImpl) assemble(d *draft.Draft, ticket string) *entity.ExpenseRequest {
	req := &entity.ExpenseRequest{
		TicketNumber:   ticket,
		CostCenterCode: d.CostCenter.Code,
		WorkerID:       d.Worker.ID,
		SpentValue:     d.Ledger.Total(),
		EmissionDate:   s.now(),
		State:          workflow.StatePending.String(),
	}

	if d.Signature != nil {
		req.SignatureData = d.Signature.EncodedData
		req.SignatureMime = d.Signature.MimeType
	}

	for _, item := range d.Ledger.Items() {
		day := item.Date
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		req.Details = append(req.Details, &entity.ExpenseDetail{
			Date:        day,
			DayRate:     item.DayRate,
			DayCount:    item.DayCount,
			Category:    item.Category,
			Description: item.Description,
			Destination: item.Destination,
		})
	}

	return req
}
