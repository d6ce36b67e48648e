package repository

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/asanchezr/viaticos/internal/application/port"
	"github.com/asanchezr/viaticos/internal/infrastructure/persistence/sqlite"
)

// TokenRepository implements port.TokenRepository. Consumed submission tokens
// are the de-duplication record that makes Submit safe to replay.
type TokenRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *sqlite.DB, logger *zap.Logger) port.TokenRepository {
	return &TokenRepository{
		db:     db,
		logger: logger,
	}
}

// Consume records the token. A token seen before returns ErrDuplicateToken
// with the request id it was bound to.
func (r *TokenRepository) Consume(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, fmt.Errorf("submission token required")
	}

	_, err := r.db.Executor(ctx).ExecContext(ctx,
		"INSERT INTO submission_tokens (token) VALUES (?)", token)
	if err == nil {
		return 0, nil
	}

	if !isUniqueViolation(err) {
		r.logger.Error("Failed to consume token", zap.Error(err))
		return 0, fmt.Errorf("failed to consume token: %w", err)
	}

	var requestID int64
	err = r.db.Executor(ctx).QueryRowContext(ctx,
		"SELECT COALESCE(request_id, 0) FROM submission_tokens WHERE token = ?", token).Scan(&requestID)
	if err != nil {
		return 0, fmt.Errorf("failed to read duplicate token: %w", err)
	}
	return requestID, port.ErrDuplicateToken
}

// Bind associates the persisted request id with a consumed token.
func (r *TokenRepository) Bind(ctx context.Context, token string, requestID int64) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx,
		"UPDATE submission_tokens SET request_id = ? WHERE token = ?", requestID, token)
	if err != nil {
		r.logger.Error("Failed to bind token", zap.Error(err))
		return fmt.Errorf("failed to bind token: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
