package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ledger/internal/apperrors"
	"github.com/nkiryanov/ledger/internal/models"
	"github.com/nkiryanov/ledger/internal/repository"
	"github.com/nkiryanov/ledger/internal/testutil"
)

func TestTransactions(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, fn func(repository.Storage, models.Account)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			user, err := storage.User().CreateUser(t.Context(), "holder")
			require.NoError(t, err)
			account, err := storage.Account().CreateAccount(t.Context(), user.ID, 5000, time.Now())
			require.NoError(t, err)
			fn(storage, account)
		})
	}

	record := func(account models.Account, txID string) models.Transaction {
		return models.Transaction{
			AccountID:       account.ID,
			TransactionID:   txID,
			Type:            models.TransactionTypeUse,
			Result:          models.TransactionResultSuccess,
			Amount:          100,
			BalanceSnapshot: 4900,
			TransactedAt:    time.Now(),
		}
	}

	t.Run("Create", func(t *testing.T) {
		t.Run("create ok", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, account models.Account) {
				saved, err := storage.Transaction().Create(t.Context(), record(account, "a1b2c3d4e5"))

				require.NoError(t, err)
				require.NotZero(t, saved.ID)
				require.Equal(t, account.ID, saved.AccountID)
				require.Equal(t, "a1b2c3d4e5", saved.TransactionID)
			})
		})

		t.Run("duplicate transaction id fail", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, account models.Account) {
				_, err := storage.Transaction().Create(t.Context(), record(account, "a1b2c3d4e5"))
				require.NoError(t, err)

				_, err = storage.Transaction().Create(t.Context(), record(account, "a1b2c3d4e5"))

				require.ErrorIs(t, err, apperrors.ErrTransactionIDTaken)
			})
		})

		t.Run("duplicate keeps tx usable", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, account models.Account) {
				_, err := storage.Transaction().Create(t.Context(), record(account, "a1b2c3d4e5"))
				require.NoError(t, err)

				_, err = storage.Transaction().Create(t.Context(), record(account, "a1b2c3d4e5"))
				require.ErrorIs(t, err, apperrors.ErrTransactionIDTaken)

				// The collision must not abort the enclosing db transaction
				_, err = storage.Transaction().Create(t.Context(), record(account, "f6a7b8c9d0"))
				require.NoError(t, err)
			})
		})
	})

	t.Run("GetByTransactionID", func(t *testing.T) {
		t.Run("get ok", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, account models.Account) {
				created, err := storage.Transaction().Create(t.Context(), record(account, "a1b2c3d4e5"))
				require.NoError(t, err)

				got, err := storage.Transaction().GetByTransactionID(t.Context(), "a1b2c3d4e5")

				require.NoError(t, err)
				require.Equal(t, created.ID, got.ID)
				require.Equal(t, account.Number, got.AccountNumber)
				require.Equal(t, models.TransactionTypeUse, got.Type)
				require.Equal(t, int64(100), got.Amount)
				require.Equal(t, int64(4900), got.BalanceSnapshot)
			})
		})

		t.Run("unknown id fail", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, _ models.Account) {
				_, err := storage.Transaction().GetByTransactionID(t.Context(), "nosuchtxid")

				require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
			})
		})
	})

	t.Run("ListByAccount", func(t *testing.T) {
		t.Run("ordered by insertion", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, account models.Account) {
				first, err := storage.Transaction().Create(t.Context(), record(account, "a1b2c3d4e5"))
				require.NoError(t, err)
				second, err := storage.Transaction().Create(t.Context(), record(account, "f6a7b8c9d0"))
				require.NoError(t, err)

				records, err := storage.Transaction().ListByAccount(t.Context(), account.ID)

				require.NoError(t, err)
				require.Len(t, records, 2)
				require.Equal(t, first.TransactionID, records[0].TransactionID)
				require.Equal(t, second.TransactionID, records[1].TransactionID)
			})
		})

		t.Run("empty for fresh account", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, account models.Account) {
				records, err := storage.Transaction().ListByAccount(t.Context(), account.ID)

				require.NoError(t, err)
				require.Empty(t, records)
			})
		})
	})
}
