package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/asanchezr/viaticos/internal/application/port"
	"github.com/asanchezr/viaticos/internal/domain/entity"
	"github.com/asanchezr/viaticos/internal/infrastructure/persistence/sqlite"
)

// ReferenceRepository implements port.ReferenceRepository over the seeded
// cost center and worker tables
type ReferenceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewReferenceRepository creates a new reference data repository
func NewReferenceRepository(db *sqlite.DB, logger *zap.Logger) port.ReferenceRepository {
	return &ReferenceRepository{
		db:     db,
		logger: logger,
	}
}

// ListCostCenters returns all cost centers ordered by code
func (r *ReferenceRepository) ListCostCenters(ctx context.Context) ([]*entity.CostCenter, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx,
		"SELECT code, name, manager_id FROM cost_centers ORDER BY code ASC")
	if err != nil {
		r.logger.Error("Failed to list cost centers", zap.Error(err))
		return nil, fmt.Errorf("failed to list cost centers: %w", err)
	}
	defer rows.Close()

	var centers []*entity.CostCenter
	for rows.Next() {
		var center entity.CostCenter
		if err := rows.Scan(&center.Code, &center.Name, &center.ManagerID); err != nil {
			return nil, fmt.Errorf("failed to scan cost center: %w", err)
		}
		centers = append(centers, &center)
	}
	return centers, rows.Err()
}

// GetCostCenter returns the cost center with the given code, nil if unknown
func (r *ReferenceRepository) GetCostCenter(ctx context.Context, code string) (*entity.CostCenter, error) {
	var center entity.CostCenter
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		"SELECT code, name, manager_id FROM cost_centers WHERE code = ?", code).
		Scan(&center.Code, &center.Name, &center.ManagerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get cost center", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to get cost center: %w", err)
	}
	return &center, nil
}

// ListWorkers returns all workers ordered by last name
func (r *ReferenceRepository) ListWorkers(ctx context.Context) ([]*entity.Worker, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx,
		"SELECT id, name, last_name, dni, email FROM workers ORDER BY last_name ASC, name ASC")
	if err != nil {
		r.logger.Error("Failed to list workers", zap.Error(err))
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	var workers []*entity.Worker
	for rows.Next() {
		var worker entity.Worker
		if err := rows.Scan(&worker.ID, &worker.Name, &worker.LastName, &worker.DNI, &worker.Email); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, &worker)
	}
	return workers, rows.Err()
}

// GetWorker returns the worker with the given id, nil if unknown
func (r *ReferenceRepository) GetWorker(ctx context.Context, id int64) (*entity.Worker, error) {
	var worker entity.Worker
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		"SELECT id, name, last_name, dni, email FROM workers WHERE id = ?", id).
		Scan(&worker.ID, &worker.Name, &worker.LastName, &worker.DNI, &worker.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get worker", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	return &worker, nil
}
