package store

import (
	"context"
	"testing"
	"time"

	"homecare/pkg/types"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRepository_CreateRequest(t *testing.T) {
	t.Run("Should assign identity and insert every column", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		args := make([]any, len(requestColumns))
		for i := range args {
			args[i] = pgxmock.AnyArg()
		}
		mockPool.ExpectExec("INSERT INTO homecare.service_requests").
			WithArgs(args...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		request := &types.ServiceRequest{
			UserID:     "user_1",
			CategoryID: types.CategoryRays,
			Status:     types.RequestStatusSubmitted,
		}
		err = NewRequestRepository(mockPool).CreateRequest(context.Background(), request)
		require.NoError(t, err)
		assert.Len(t, request.ID, 32)
		assert.False(t, request.CreatedAt.IsZero())
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRequestRepository_Request(t *testing.T) {
	columns := []string{"id", "user_id", "category_id", "status", "created_at", "updated_at"}

	t.Run("Should return the stored request", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
		rows := mockPool.NewRows(columns).
			AddRow("r1", "user_1", types.CategoryDoctors, types.RequestStatusAssigned, created, created)
		mockPool.ExpectQuery("SELECT (.+) FROM homecare.service_requests WHERE id = \\$1 LIMIT 1").
			WithArgs("r1").
			WillReturnRows(rows)

		request, err := NewRequestRepository(mockPool).Request(context.Background(), "r1")
		require.NoError(t, err)
		assert.Equal(t, "r1", request.ID)
		assert.Equal(t, types.CategoryDoctors, request.CategoryID)
		assert.Equal(t, types.RequestStatusAssigned, request.Status)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should map a missing row to ErrRequestNotFound", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectQuery("SELECT (.+) FROM homecare.service_requests WHERE id = \\$1").
			WithArgs("missing").
			WillReturnRows(mockPool.NewRows(columns))

		_, err = NewRequestRepository(mockPool).Request(context.Background(), "missing")
		require.ErrorIs(t, err, types.ErrRequestNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRequestRepository_RequestsByUser(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	now := time.Now()
	rows := mockPool.NewRows([]string{"id", "user_id", "status", "created_at"}).
		AddRow("r2", "user_1", types.RequestStatusSubmitted, now).
		AddRow("r1", "user_1", types.RequestStatusCompleted, now.Add(-time.Hour))
	mockPool.ExpectQuery("SELECT (.+) FROM homecare.service_requests WHERE deleted_at IS NULL AND user_id = \\$1 ORDER BY created_at DESC").
		WithArgs("user_1").
		WillReturnRows(rows)

	requests, err := NewRequestRepository(mockPool).RequestsByUser(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "r2", requests[0].ID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRequestRepository_Requests(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectQuery("SELECT (.+) FROM homecare.service_requests WHERE status = \\$1 AND category_id = \\$2 AND deleted_at IS NULL ORDER BY created_at DESC LIMIT 20").
		WithArgs(types.RequestStatusSubmitted, types.CategoryDuties).
		WillReturnRows(mockPool.NewRows([]string{"id"}).AddRow("r1"))

	requests, err := NewRequestRepository(mockPool).Requests(context.Background(), RequestFilter{
		Status:     types.RequestStatusSubmitted,
		CategoryID: types.CategoryDuties,
		Limit:      20,
	})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRequestRepository_UpdateRequest(t *testing.T) {
	t.Run("Should stamp updated_at and never touch identity", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectExec("UPDATE homecare.service_requests SET status = \\$1, updated_at = \\$2 WHERE id = \\$3").
			WithArgs(types.RequestStatusCancelled, pgxmock.AnyArg(), "r1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = NewRequestRepository(mockPool).UpdateRequest(context.Background(), "r1", map[string]any{
			"id":     "other",
			"status": types.RequestStatusCancelled,
		})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should report unknown ids", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectExec("UPDATE homecare.service_requests").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = NewRequestRepository(mockPool).UpdateRequest(context.Background(), "missing", map[string]any{"city": "Zarqa"})
		require.ErrorIs(t, err, types.ErrRequestNotFound)
	})
}

func TestRequestRepository_SoftDeleteAndRestore(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectExec("UPDATE homecare.service_requests SET deleted_at = \\$1, updated_at = \\$2 WHERE deleted_at IS NULL AND id = \\$3").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "r1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec("UPDATE homecare.service_requests SET deleted_at = \\$1, updated_at = \\$2 WHERE deleted_at IS NULL AND id = \\$3").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "r1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectExec("UPDATE homecare.service_requests SET deleted_at = \\$1, updated_at = \\$2 WHERE id = \\$3 AND deleted_at IS NOT NULL").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "r1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewRequestRepository(mockPool)
	require.NoError(t, repo.SoftDeleteRequest(context.Background(), "r1"))
	require.ErrorIs(t, repo.SoftDeleteRequest(context.Background(), "r1"), types.ErrRequestNotFound)
	require.NoError(t, repo.RestoreRequest(context.Background(), "r1"))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRequestRepository_PurgeRequests(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectExec("DELETE FROM homecare.service_requests WHERE problem_description LIKE \\$1").
		WithArgs("[seed] %").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	purged, err := NewRequestRepository(mockPool).PurgeRequests(context.Background(), "[seed] ")
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
