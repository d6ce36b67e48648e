package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/asanchezr/viaticos/internal/application/port"
	"github.com/asanchezr/viaticos/internal/domain/entity"
	"github.com/asanchezr/viaticos/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create records an approval lifecycle action
func (r *HistoryRepository) Create(ctx context.Context, history *entity.ApprovalHistory) error {
	query := `
		INSERT INTO approval_history (
			request_id, manager_id, previous_state, new_state,
			action_type, note, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		history.RequestID,
		history.ManagerID,
		history.PreviousState,
		history.NewState,
		history.ActionType,
		history.Note,
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history entry", zap.Error(err))
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// GetByRequestID retrieves the approval history of a request, oldest first
func (r *HistoryRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalHistory, error) {
	query := `
		SELECT id, request_id, manager_id, previous_state, new_state,
			action_type, note, timestamp
		FROM approval_history
		WHERE request_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.ApprovalHistory
	for rows.Next() {
		var entry entity.ApprovalHistory
		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.ManagerID,
			&entry.PreviousState,
			&entry.NewState,
			&entry.ActionType,
			&entry.Note,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
