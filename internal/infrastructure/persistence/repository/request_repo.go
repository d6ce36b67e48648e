package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/asanchezr/viaticos/internal/application/port"
	"github.com/asanchezr/viaticos/internal/domain/entity"
	"github.com/asanchezr/viaticos/internal/infrastructure/persistence/sqlite"
)

// detailDateLayout is the calendar-date-only storage format for detail dates.
const detailDateLayout = "2006-01-02"

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sqlite.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new expense request with its details
func (r *RequestRepository) Create(ctx context.Context, req *entity.ExpenseRequest) error {
	query := `
		INSERT INTO expense_requests (
			ticket_number, cost_center_code, worker_id, spent_value,
			emission_date, state, signature_data, signature_mime, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		req.TicketNumber,
		req.CostCenterCode,
		req.WorkerID,
		req.SpentValue.String(),
		req.EmissionDate,
		req.State,
		req.SignatureData,
		req.SignatureMime,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	req.Version = 1

	if err := r.insertDetails(ctx, req); err != nil {
		return err
	}
	return nil
}

// Update replaces the request and its details, guarded by expectedVersion.
func (r *RequestRepository) Update(ctx context.Context, req *entity.ExpenseRequest, expectedVersion int64) error {
	query := `
		UPDATE expense_requests
		SET ticket_number = ?, cost_center_code = ?, worker_id = ?,
			spent_value = ?, emission_date = ?, signature_data = ?,
			signature_mime = ?, version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		req.TicketNumber,
		req.CostCenterCode,
		req.WorkerID,
		req.SpentValue.String(),
		req.EmissionDate,
		req.SignatureData,
		req.SignatureMime,
		req.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update request", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}

	if err := r.checkAffected(ctx, result, req.ID); err != nil {
		return err
	}
	req.Version = expectedVersion + 1

	// Details are replaced wholesale: persisted detail rows are immutable,
	// an edit re-submits the full set.
	if _, err := r.db.Executor(ctx).ExecContext(ctx,
		"DELETE FROM expense_details WHERE request_id = ?", req.ID); err != nil {
		return fmt.Errorf("failed to clear details: %w", err)
	}
	return r.insertDetails(ctx, req)
}

// UpdateState transitions the request state, guarded by expectedVersion.
func (r *RequestRepository) UpdateState(ctx context.Context, id int64, state string, expectedVersion int64) error {
	query := `
		UPDATE expense_requests
		SET state = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, state, id, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to update request state", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update request state: %w", err)
	}

	return r.checkAffected(ctx, result, id)
}

// checkAffected distinguishes a missing row from a stale version when a
// guarded update matched nothing.
func (r *RequestRepository) checkAffected(ctx context.Context, result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists int
	err = r.db.Executor(ctx).QueryRowContext(ctx,
		"SELECT COUNT(1) FROM expense_requests WHERE id = ?", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check request existence: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("request %d not found", id)
	}
	return fmt.Errorf("request %d: %w", id, port.ErrVersionConflict)
}

// GetByID retrieves a request with its nested details. Returns nil when the
// id does not resolve.
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByTicketNumber retrieves a request by its ticket number.
func (r *RequestRepository) GetByTicketNumber(ctx context.Context, ticket string) (*entity.ExpenseRequest, error) {
	return r.getOne(ctx, "ticket_number = ?", ticket)
}

func (r *RequestRepository) getOne(ctx context.Context, where string, arg interface{}) (*entity.ExpenseRequest, error) {
	query := `
		SELECT id, ticket_number, cost_center_code, worker_id, spent_value,
			emission_date, state, signature_data, signature_mime, version,
			created_at, updated_at
		FROM expense_requests
		WHERE ` + where

	req, err := r.scanRequest(r.db.Executor(ctx).QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.Any("arg", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	details, err := r.getDetails(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Details = details
	return req, nil
}

// ListByState retrieves a page of requests in the given state, newest first.
// Details are not loaded for list views.
func (r *RequestRepository) ListByState(ctx context.Context, state string, limit, offset int) ([]*entity.ExpenseRequest, error) {
	query := `
		SELECT id, ticket_number, cost_center_code, worker_id, spent_value,
			emission_date, state, signature_data, signature_mime, version,
			created_at, updated_at
		FROM expense_requests
		WHERE state = ?
		ORDER BY emission_date DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, state, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.String("state", state), zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.ExpenseRequest
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *RequestRepository) scanRequest(row rowScanner) (*entity.ExpenseRequest, error) {
	var req entity.ExpenseRequest
	var spentValue string

	err := row.Scan(
		&req.ID,
		&req.TicketNumber,
		&req.CostCenterCode,
		&req.WorkerID,
		&spentValue,
		&req.EmissionDate,
		&req.State,
		&req.SignatureData,
		&req.SignatureMime,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.SpentValue, err = decimal.NewFromString(spentValue)
	if err != nil {
		return nil, fmt.Errorf("malformed spent value %q: %w", spentValue, err)
	}
	return &req, nil
}

func (r *RequestRepository) insertDetails(ctx context.Context, req *entity.ExpenseRequest) error {
	query := `
		INSERT INTO expense_details (
			request_id, date, trip_amount, day_amount,
			category, description, destination
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for _, detail := range req.Details {
		result, err := r.db.Executor(ctx).ExecContext(ctx, query,
			req.ID,
			detail.Date.Format(detailDateLayout),
			detail.DayRate.String(),
			detail.DayCount,
			detail.Category,
			detail.Description,
			detail.Destination,
		)
		if err != nil {
			r.logger.Error("Failed to insert detail", zap.Int64("request_id", req.ID), zap.Error(err))
			return fmt.Errorf("failed to insert detail: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		detail.ID = id
		detail.RequestID = req.ID
	}
	return nil
}

func (r *RequestRepository) getDetails(ctx context.Context, requestID int64) ([]*entity.ExpenseDetail, error) {
	query := `
		SELECT id, request_id, date, trip_amount, day_amount,
			category, description, destination, created_at
		FROM expense_details
		WHERE request_id = ?
		ORDER BY date ASC, id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get details", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get details: %w", err)
	}
	defer rows.Close()

	var details []*entity.ExpenseDetail
	for rows.Next() {
		var detail entity.ExpenseDetail
		var date, dayRate string

		err := rows.Scan(
			&detail.ID,
			&detail.RequestID,
			&date,
			&dayRate,
			&detail.DayCount,
			&detail.Category,
			&detail.Description,
			&detail.Destination,
			&detail.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detail: %w", err)
		}

		detail.Date, err = time.Parse(detailDateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("malformed detail date %q: %w", date, err)
		}
		detail.DayRate, err = decimal.NewFromString(dayRate)
		if err != nil {
			return nil, fmt.Errorf("malformed day rate %q: %w", dayRate, err)
		}

		details = append(details, &detail)
	}
	return details, rows.Err()
}
