package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solatis/parkwatch/internal/core/db"
	"github.com/solatis/parkwatch/internal/types"
)

func setupMockStore(t *testing.T) (sqlmock.Sqlmock, *Store) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	queries, err := db.LoadQueries(sqlx.NewDb(mockDB, db.DriverSQLite))
	require.NoError(t, err)

	s, err := New(queries, zap.NewNop())
	require.NoError(t, err)
	return mock, s
}

func TestReplaceAll_RollsBackOnInsertFailure(t *testing.T) {
	mock, s := setupMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, created_at FROM event_conditions`).
		WithArgs(testObject).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("old", time.Now()))
	mock.ExpectExec(`DELETE FROM event_conditions WHERE object_id`).
		WithArgs(testObject).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO event_conditions`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.ReplaceAllConditions(ctx, testObject, []types.EventCondition{newSingle("temp", types.LevelDanger, 40)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchConditions_QueryError(t *testing.T) {
	mock, s := setupMockStore(t)

	mock.ExpectQuery(`SELECT`).
		WithArgs(testObject).
		WillReturnError(errors.New("connection reset"))

	_, err := s.FetchConditions(context.Background(), testObject)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list conditions")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCondition_NoRows(t *testing.T) {
	mock, s := setupMockStore(t)

	mock.ExpectExec(`DELETE FROM event_conditions WHERE id`).
		WithArgs("missing", testObject).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteCondition(context.Background(), "missing", testObject)
	assert.True(t, errors.Is(err, types.ErrConditionNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}
