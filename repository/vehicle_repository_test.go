package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"justbot/models"
	"justbot/repository/testutil"
)

func TestVehicleRepository_Transition(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewVehicleRepository(testDB.DB)
	ctx := context.Background()

	reg := testutil.CreateTestRegistration(42, 111, "bicycle")
	require.NoError(t, repo.Create(ctx, reg))
	assert.NotZero(t, reg.ID)

	reviewerID := int64(999)

	t.Run("pending to approved", func(t *testing.T) {
		ok, err := repo.Transition(ctx, reg.ID, models.VehicleStatusApproved, &reviewerID, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		found, err := repo.GetByID(ctx, reg.ID)
		require.NoError(t, err)
		assert.Equal(t, models.VehicleStatusApproved, found.Status)
		require.NotNil(t, found.ReviewerID)
		assert.Equal(t, reviewerID, *found.ReviewerID)
		assert.NotNil(t, found.DecidedAt)
	})

	t.Run("decided rows are terminal", func(t *testing.T) {
		ok, err := repo.Transition(ctx, reg.ID, models.VehicleStatusRejected, &reviewerID, nil)
		require.NoError(t, err)
		assert.False(t, ok)

		// Still approved
		found, err := repo.GetByID(ctx, reg.ID)
		require.NoError(t, err)
		assert.Equal(t, models.VehicleStatusApproved, found.Status)
	})

	t.Run("rejection stores the reason", func(t *testing.T) {
		other := testutil.CreateTestRegistration(42, 222, "bus")
		require.NoError(t, repo.Create(ctx, other))

		reason := "no papers"
		ok, err := repo.Transition(ctx, other.ID, models.VehicleStatusRejected, &reviewerID, &reason)
		require.NoError(t, err)
		assert.True(t, ok)

		found, err := repo.GetByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, models.VehicleStatusRejected, found.Status)
		require.NotNil(t, found.RejectReason)
		assert.Equal(t, "no papers", *found.RejectReason)
	})
}

func TestVehicleRepository_ExpiredPending(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewVehicleRepository(testDB.DB)
	ctx := context.Background()

	overdue := testutil.CreateTestRegistration(42, 111, "scooter")
	overdue.ReviewBy = time.Now().Add(-1 * time.Minute)
	require.NoError(t, repo.Create(ctx, overdue))

	fresh := testutil.CreateTestRegistration(42, 222, "bus")
	require.NoError(t, repo.Create(ctx, fresh))

	decided := testutil.CreateTestRegistration(42, 333, "tram")
	decided.ReviewBy = time.Now().Add(-1 * time.Minute)
	require.NoError(t, repo.Create(ctx, decided))
	reviewerID := int64(999)
	ok, err := repo.Transition(ctx, decided.ID, models.VehicleStatusApproved, &reviewerID, nil)
	require.NoError(t, err)
	require.True(t, ok)

	// Only the still-pending overdue registration comes back
	expired, err := repo.GetExpiredPending(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, overdue.ID, expired[0].ID)

	count, err := repo.CountPendingByGuild(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestVehicleRepository_GetApprovedByUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewVehicleRepository(testDB.DB)
	ctx := context.Background()

	reviewerID := int64(999)

	approved := testutil.CreateTestRegistration(42, 111, "bicycle")
	require.NoError(t, repo.Create(ctx, approved))
	ok, err := repo.Transition(ctx, approved.ID, models.VehicleStatusApproved, &reviewerID, nil)
	require.NoError(t, err)
	require.True(t, ok)

	pending := testutil.CreateTestRegistration(42, 111, "bus")
	require.NoError(t, repo.Create(ctx, pending))

	otherGuild := testutil.CreateTestRegistration(43, 111, "tram")
	require.NoError(t, repo.Create(ctx, otherGuild))

	regs, err := repo.GetApprovedByUser(ctx, 42, 111)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "bicycle", regs[0].VehicleName)
}
