package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"justbot/models"
	"justbot/repository/testutil"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing account returns nil", func(t *testing.T) {
		account, err := repo.GetByDiscordID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("new account starts at zero", func(t *testing.T) {
		account, err := repo.Create(ctx, 111, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(0), account.Balance)
		assert.Equal(t, "alice", account.Username)
		assert.False(t, account.CreatedAt.IsZero())

		found, err := repo.GetByDiscordID(ctx, 111)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, account.DiscordID, found.DiscordID)
	})

	t.Run("duplicate account rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, 111, "alice again")
		assert.Error(t, err)
	})
}

func TestAccountRepository_Balances(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, 222, "bob")
	require.NoError(t, err)

	t.Run("credit and debit round trip", func(t *testing.T) {
		require.NoError(t, repo.AddBalance(ctx, 222, 100000))
		require.NoError(t, repo.DeductBalance(ctx, 222, 30000))

		account, err := repo.GetByDiscordID(ctx, 222)
		require.NoError(t, err)
		assert.Equal(t, int64(70000), account.Balance)
	})

	t.Run("debit cannot overdraw", func(t *testing.T) {
		err := repo.DeductBalance(ctx, 222, 1000000)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient balance")

		// Balance untouched by the failed debit
		account, err := repo.GetByDiscordID(ctx, 222)
		require.NoError(t, err)
		assert.Equal(t, int64(70000), account.Balance)
	})

	t.Run("debit on missing account", func(t *testing.T) {
		err := repo.DeductBalance(ctx, 999999, 100)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("count and total", func(t *testing.T) {
		count, total, err := repo.CountAndTotal(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, int64(70000), total)
	})
}

func TestLedgerEntryRepository_RecordAndQuery(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	ledger := NewLedgerEntryRepository(testDB.DB)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 333, "carol")
	require.NoError(t, err)

	first := testutil.CreateTestLedgerEntry(333, 42, models.EntryTypeDeposit)
	first.BalanceBefore = 0
	first.BalanceAfter = 50000
	first.ChangeAmount = 50000
	require.NoError(t, ledger.Record(ctx, first))
	assert.NotZero(t, first.ID)

	second := testutil.CreateTestLedgerEntry(333, 42, models.EntryTypeWithdrawal)
	second.BalanceBefore = 50000
	second.BalanceAfter = 40000
	require.NoError(t, ledger.Record(ctx, second))

	t.Run("newest first with limit", func(t *testing.T) {
		entries, err := ledger.GetByUser(ctx, 333, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, models.EntryTypeWithdrawal, entries[0].EntryType)
		assert.Equal(t, models.EntryTypeDeposit, entries[1].EntryType)

		entries, err = ledger.GetByUser(ctx, 333, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.EntryTypeWithdrawal, entries[0].EntryType)
	})

	t.Run("metadata round trip", func(t *testing.T) {
		entries, err := ledger.GetByUser(ctx, 333, 10)
		require.NoError(t, err)
		assert.Equal(t, true, entries[0].Metadata["test"])
	})

	t.Run("guild scope", func(t *testing.T) {
		entries, err := ledger.GetByGuild(ctx, 42, 10)
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		entries, err = ledger.GetByGuild(ctx, 43, 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
