package port

import (
	"context"
	"errors"

	"github.com/asanchezr/viaticos/internal/domain/entity"
)

var (
	// ErrVersionConflict is returned when an update carries a stale expected version
	ErrVersionConflict = errors.New("request version conflict")

	// ErrDuplicateToken is returned when a submission token was already consumed
	ErrDuplicateToken = errors.New("submission token already processed")
)

// RequestRepository defines persistence operations for ExpenseRequest
type RequestRepository interface {
	Create(ctx context.Context, req *entity.ExpenseRequest) error
	// Update replaces the request and its details. The stored row must still
	// be at expectedVersion or ErrVersionConflict is returned.
	Update(ctx context.Context, req *entity.ExpenseRequest, expectedVersion int64) error
	GetByID(ctx context.Context, id int64) (*entity.ExpenseRequest, error)
	GetByTicketNumber(ctx context.Context, ticket string) (*entity.ExpenseRequest, error)
	ListByState(ctx context.Context, state string, limit, offset int) ([]*entity.ExpenseRequest, error)
	// UpdateState transitions the request state, guarded by expectedVersion.
	UpdateState(ctx context.Context, id int64, state string, expectedVersion int64) error
}

// HistoryRepository defines persistence operations for ApprovalHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ApprovalHistory) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalHistory, error)
}

// ReferenceRepository serves the read-only reference data the wizard selects from
type ReferenceRepository interface {
	ListCostCenters(ctx context.Context) ([]*entity.CostCenter, error)
	GetCostCenter(ctx context.Context, code string) (*entity.CostCenter, error)
	ListWorkers(ctx context.Context) ([]*entity.Worker, error)
	GetWorker(ctx context.Context, id int64) (*entity.Worker, error)
}

// TicketAllocator issues ticket numbers unique across all requests
type TicketAllocator interface {
	AllocateTicket(ctx context.Context) (string, error)
}

// TokenRepository persists consumed submission idempotency tokens
type TokenRepository interface {
	// Consume records the token and returns ErrDuplicateToken if it was
	// already consumed, along with the request id recorded for it.
	Consume(ctx context.Context, token string) (int64, error)
	// Bind associates the persisted request id with a consumed token.
	Bind(ctx context.Context, token string, requestID int64) error
}

// TransactionManager runs a function within a database transaction carried on
// the context
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
