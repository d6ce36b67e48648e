package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/asanchezr/viaticos/internal/application/port"
	"github.com/asanchezr/viaticos/internal/infrastructure/persistence/sqlite"
)

// TicketRepository implements port.TicketAllocator over a database sequence,
// so ticket numbers stay unique across all requests no matter how many server
// instances allocate them.
type TicketRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewTicketRepository creates a new ticket allocator
func NewTicketRepository(db *sqlite.DB, logger *zap.Logger) port.TicketAllocator {
	return &TicketRepository{
		db:     db,
		logger: logger,
	}
}

// AllocateTicket issues the next ticket number. Format: TCK-NNNN.
func (r *TicketRepository) AllocateTicket(ctx context.Context) (string, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		"INSERT INTO tickets (created_at) VALUES (CURRENT_TIMESTAMP)")
	if err != nil {
		r.logger.Error("Failed to allocate ticket", zap.Error(err))
		return "", fmt.Errorf("failed to allocate ticket: %w", err)
	}

	sequence, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to get ticket sequence: %w", err)
	}

	ticket := fmt.Sprintf("TCK-%04d", sequence)
	r.logger.Info("Ticket allocated", zap.String("ticket_number", ticket))
	return ticket, nil
}
