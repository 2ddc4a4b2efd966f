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

const datasetColumns = `id, user_id, dataset_name, raw_data, cleaned_data, image_url, final_value, combined_total, color_code, created_at`

// DatasetRepository persists uploaded datasets.
type DatasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository constructs the repository.
func NewDatasetRepository(db *sqlx.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Create inserts a dataset and fills the generated id.
func (r *DatasetRepository) Create(ctx context.Context, ds *models.Dataset) error {
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO datasets (user_id, dataset_name, raw_data, cleaned_data, image_url, color_code, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	row := r.db.QueryRowxContext(ctx, query, ds.UserID, ds.DatasetName, ds.RawData, ds.CleanedData, ds.ImageURL, ds.ColorCode, ds.CreatedAt)
	if err := row.Scan(&ds.ID); err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	return nil
}

// CountByUser returns how many datasets a user has uploaded.
func (r *DatasetRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM datasets WHERE user_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, fmt.Errorf("count datasets by user: %w", err)
	}
	return total, nil
}

// ListByUser returns the datasets of a user, newest first.
func (r *DatasetRepository) ListByUser(ctx context.Context, userID int64) ([]models.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE user_id = $1 ORDER BY created_at DESC`
	var datasets []models.Dataset
	if err := r.db.SelectContext(ctx, &datasets, query, userID); err != nil {
		return nil, fmt.Errorf("list datasets by user: %w", err)
	}
	return datasets, nil
}

// ListWithOwner returns every dataset joined with its uploader, newest first.
func (r *DatasetRepository) ListWithOwner(ctx context.Context) ([]models.DatasetWithOwner, error) {
	const query = `SELECT d.id, d.user_id, d.dataset_name, d.raw_data, d.cleaned_data, d.image_url, d.final_value, d.combined_total, d.color_code, d.created_at,
u.email AS owner_email, u.username AS owner_username, u.role AS owner_role
FROM datasets d JOIN users u ON u.id = d.user_id ORDER BY d.created_at DESC`
	var datasets []models.DatasetWithOwner
	if err := r.db.SelectContext(ctx, &datasets, query); err != nil {
		return nil, fmt.Errorf("list datasets with owner: %w", err)
	}
	return datasets, nil
}

// ListPublic returns the public projection of every dataset, newest first.
func (r *DatasetRepository) ListPublic(ctx context.Context) ([]models.PublicDataset, error) {
	const query = `SELECT id, dataset_name, final_value, combined_total, color_code, image_url, created_at FROM datasets ORDER BY created_at DESC`
	var datasets []models.PublicDataset
	if err := r.db.SelectContext(ctx, &datasets, query); err != nil {
		return nil, fmt.Errorf("list public datasets: %w", err)
	}
	return datasets, nil
}

// FindLatestByUserAndName returns the most recent dataset of a user matching name case-insensitively.
func (r *DatasetRepository) FindLatestByUserAndName(ctx context.Context, userID int64, name string) (*models.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE user_id = $1 AND LOWER(dataset_name) = LOWER($2) ORDER BY created_at DESC, id DESC LIMIT 1`
	var ds models.Dataset
	if err := r.db.GetContext(ctx, &ds, query, userID, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find latest dataset: %w", err)
	}
	return &ds, nil
}

// CleanedDataByName returns the normalized data of every dataset named name, across all users.
func (r *DatasetRepository) CleanedDataByName(ctx context.Context, name string) ([]string, error) {
	const query = `SELECT cleaned_data FROM datasets WHERE LOWER(dataset_name) = LOWER($1)`
	var rows []string
	if err := r.db.SelectContext(ctx, &rows, query, name); err != nil {
		return nil, fmt.Errorf("select cleaned data by name: %w", err)
	}
	return rows, nil
}

// UpdateColor sets the color tag. It returns sql.ErrNoRows when no dataset matches.
func (r *DatasetRepository) UpdateColor(ctx context.Context, id int64, color string) error {
	const query = `UPDATE datasets SET color_code = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, color)
	if err != nil {
		return fmt.Errorf("update dataset color: %w", err)
	}
	return requireAffected(res)
}

// ApplyReference copies a reference final value and combined total onto a dataset.
func (r *DatasetRepository) ApplyReference(ctx context.Context, id int64, finalValue string, combinedTotal *float64) error {
	const query = `UPDATE datasets SET final_value = $2, combined_total = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, finalValue, combinedTotal); err != nil {
		return fmt.Errorf("apply reference to dataset: %w", err)
	}
	return nil
}
