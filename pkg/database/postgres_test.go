package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datamatch-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "secret", Name: "datamatch", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=datamatch sslmode=disable connect_timeout=5", dsn)
}

func TestPingWrapsFailure(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "postgres")

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err = ping(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping postgres")

	mock.ExpectPing()
	require.NoError(t, ping(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}
