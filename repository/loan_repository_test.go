package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"justbot/models"
	"justbot/repository/testutil"
)

func TestLoanRepository_OneActiveLoanPerOwner(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLoanRepository(testDB.DB)
	ctx := context.Background()

	first := testutil.CreateTestLoan(111, 42, 100000)
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	// The partial unique index blocks a second active loan
	second := testutil.CreateTestLoan(111, 42, 50000)
	err := repo.Create(ctx, second)
	assert.Error(t, err)

	// A different owner is unaffected
	other := testutil.CreateTestLoan(222, 42, 50000)
	require.NoError(t, repo.Create(ctx, other))
}

func TestLoanRepository_ApplyPayment(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLoanRepository(testDB.DB)
	ctx := context.Background()

	loan := testutil.CreateTestLoan(111, 42, 1000000)
	require.NoError(t, repo.Create(ctx, loan))
	require.Equal(t, int64(1032000), loan.TotalOwed)

	t.Run("partial payment stays active", func(t *testing.T) {
		updated, err := repo.ApplyPayment(ctx, loan.ID, 500000)
		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusActive, updated.Status)
		assert.Equal(t, int64(532000), updated.Remaining())
	})

	t.Run("payment over the remaining debt is rejected", func(t *testing.T) {
		_, err := repo.ApplyPayment(ctx, loan.ID, 600000)
		assert.Error(t, err)

		// The rejected payment changed nothing
		current, err := repo.GetByID(ctx, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(500000), current.AmountPaid)
	})

	t.Run("final payment flips to paid", func(t *testing.T) {
		updated, err := repo.ApplyPayment(ctx, loan.ID, 532000)
		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusPaid, updated.Status)
		assert.Equal(t, int64(0), updated.Remaining())
	})

	t.Run("paid loans take no further payments", func(t *testing.T) {
		_, err := repo.ApplyPayment(ctx, loan.ID, 1)
		assert.Error(t, err)
	})

	t.Run("a paid loan frees the owner for a new one", func(t *testing.T) {
		next := testutil.CreateTestLoan(111, 42, 200000)
		require.NoError(t, repo.Create(ctx, next))

		active, err := repo.GetActiveByUser(ctx, 111)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, next.ID, active.ID)
	})
}

func TestLoanRepository_Payments(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLoanRepository(testDB.DB)
	ctx := context.Background()

	loan := testutil.CreateTestLoan(111, 42, 100000)
	require.NoError(t, repo.Create(ctx, loan))

	require.NoError(t, repo.RecordPayment(ctx, &models.LoanPayment{
		LoanID: loan.ID, DiscordID: 111, Amount: 40000,
	}))
	require.NoError(t, repo.RecordPayment(ctx, &models.LoanPayment{
		LoanID: loan.ID, DiscordID: 111, Amount: 20000,
	}))

	payments, err := repo.GetPayments(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, int64(40000), payments[0].Amount)
	assert.Equal(t, int64(20000), payments[1].Amount)
}
