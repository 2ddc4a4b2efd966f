package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datamatch-api/internal/models"
)

func TestDatasetCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO datasets (user_id, dataset_name, raw_data, cleaned_data, image_url, color_code, created_at)")).
		WithArgs(int64(7), "Lab1", "[A, B]", "A,B", nil, "#00ff00", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	ds := &models.Dataset{UserID: 7, DatasetName: "Lab1", RawData: "[A, B]", CleanedData: "A,B", ColorCode: "#00ff00"}
	require.NoError(t, repo.Create(context.Background(), ds))
	assert.Equal(t, int64(11), ds.ID)
	assert.False(t, ds.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetFindLatestByUserAndName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "dataset_name", "raw_data", "cleaned_data", "image_url", "final_value", "combined_total", "color_code", "created_at"}).
		AddRow(3, 7, "lab1", "A", "A", nil, nil, nil, "#cccccc", now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND LOWER(dataset_name) = LOWER($2) ORDER BY created_at DESC, id DESC LIMIT 1")).
		WithArgs(int64(7), "LAB1").
		WillReturnRows(rows)

	ds, err := repo.FindLatestByUserAndName(context.Background(), 7, "LAB1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), ds.ID)
	assert.Nil(t, ds.FinalValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetFindLatestNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	mock.ExpectQuery("FROM datasets WHERE user_id").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindLatestByUserAndName(context.Background(), 7, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDatasetCleanedDataByName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT cleaned_data FROM datasets WHERE LOWER(dataset_name) = LOWER($1)")).
		WithArgs("Lab1").
		WillReturnRows(sqlmock.NewRows([]string{"cleaned_data"}).AddRow("A,B").AddRow("1,2"))

	rows, err := repo.CleanedDataByName(context.Background(), "Lab1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A,B", "1,2"}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetUpdateColorMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE datasets SET color_code = $2 WHERE id = $1")).
		WithArgs(int64(99), "#123456").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateColor(context.Background(), 99, "#123456")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetApplyReference(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	total := 30.0
	mock.ExpectExec(regexp.QuoteMeta("UPDATE datasets SET final_value = $2, combined_total = $3 WHERE id = $1")).
		WithArgs(int64(3), "42", &total).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ApplyReference(context.Background(), 3, "42", &total))
	assert.NoError(t, mock.ExpectationsWereMet())
}
