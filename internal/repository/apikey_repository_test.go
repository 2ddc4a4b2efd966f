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

func TestAPIKeyCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAPIKeyRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO api_keys (user_id, key, plan, valid_from, valid_to, active, created_at)")).
		WithArgs(int64(7), "abc", "Pro", now, now.Add(time.Hour), true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	key := &models.APIKey{UserID: 7, Key: "abc", Plan: "Pro", ValidFrom: now, ValidTo: now.Add(time.Hour), Active: true}
	require.NoError(t, repo.Create(context.Background(), key))
	assert.Equal(t, int64(2), key.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPIKeyFindActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAPIKeyRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM api_keys WHERE key = $1 AND user_id = $2 AND active = TRUE LIMIT 1")).
		WithArgs("abc", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "key", "plan", "valid_from", "valid_to", "active", "created_at"}).
			AddRow(2, 7, "abc", "Pro", now, now.Add(time.Hour), true, now))

	key, err := repo.FindActive(context.Background(), "abc", 7)
	require.NoError(t, err)
	assert.False(t, key.Expired(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPIKeyDeactivateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAPIKeyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE api_keys SET active = FALSE WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Deactivate(context.Background(), 4), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
