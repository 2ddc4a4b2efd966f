package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/datamatch-api/internal/models"
)

const apiKeyColumns = `id, user_id, key, plan, valid_from, valid_to, active, created_at`

// APIKeyRepository persists API keys. Keys are deactivated, never deleted.
type APIKeyRepository struct {
	db *sqlx.DB
}

// NewAPIKeyRepository constructs the repository.
func NewAPIKeyRepository(db *sqlx.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create inserts a key and fills the generated id.
func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO api_keys (user_id, key, plan, valid_from, valid_to, active, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	row := r.db.QueryRowxContext(ctx, query, key.UserID, key.Key, key.Plan, key.ValidFrom, key.ValidTo, key.Active, key.CreatedAt)
	if err := row.Scan(&key.ID); err != nil {
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

// FindActive returns an active key owned by userID.
func (r *APIKeyRepository) FindActive(ctx context.Context, key string, userID int64) (*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key = $1 AND user_id = $2 AND active = TRUE LIMIT 1`
	var found models.APIKey
	if err := r.db.GetContext(ctx, &found, query, key, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find active api key: %w", err)
	}
	return &found, nil
}

// ListByUser returns the keys of a user, newest first.
func (r *APIKeyRepository) ListByUser(ctx context.Context, userID int64) ([]models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`
	var keys []models.APIKey
	if err := r.db.SelectContext(ctx, &keys, query, userID); err != nil {
		return nil, fmt.Errorf("list api keys by user: %w", err)
	}
	return keys, nil
}

// ListWithOwner returns every key with its owner email, newest first.
func (r *APIKeyRepository) ListWithOwner(ctx context.Context) ([]models.APIKeyWithOwner, error) {
	const query = `SELECT k.id, k.user_id, k.key, k.plan, k.valid_from, k.valid_to, k.active, k.created_at, u.email AS owner_email
FROM api_keys k JOIN users u ON u.id = k.user_id ORDER BY k.created_at DESC`
	var keys []models.APIKeyWithOwner
	if err := r.db.SelectContext(ctx, &keys, query); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// Deactivate marks a key inactive. It returns sql.ErrNoRows when no key matches.
func (r *APIKeyRepository) Deactivate(ctx context.Context, id int64) error {
	const query = `UPDATE api_keys SET active = FALSE WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate api key: %w", err)
	}
	return requireAffected(res)
}
