package postgres

import (
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ledger/internal/apperrors"
	"github.com/nkiryanov/ledger/internal/models"
	"github.com/nkiryanov/ledger/internal/repository"
	"github.com/nkiryanov/ledger/internal/testutil"
)

func TestAccounts(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, fn func(repository.Storage, models.User)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			user, err := storage.User().CreateUser(t.Context(), "holder")
			require.NoError(t, err)
			fn(storage, user)
		})
	}

	t.Run("CreateAccount", func(t *testing.T) {
		t.Run("create ok", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, user models.User) {
				registeredAt := time.Now()

				account, err := storage.Account().CreateAccount(t.Context(), user.ID, 5000, registeredAt)

				require.NoError(t, err)
				require.NotZero(t, account.ID)
				require.Equal(t, user.ID, account.UserID)
				require.Equal(t, models.AccountStatusActive, account.Status)
				require.Equal(t, int64(5000), account.Balance)
				require.WithinDuration(t, registeredAt, account.RegisteredAt, time.Second)
				require.Nil(t, account.ClosedAt)
			})
		})

		t.Run("unknown owner fail", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, _ models.User) {
				_, err := storage.Account().CreateAccount(t.Context(), 99999, 0, time.Now())

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})

		t.Run("numbers come from shared sequence", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, user models.User) {
				first, err := storage.Account().CreateAccount(t.Context(), user.ID, 0, time.Now())
				require.NoError(t, err)
				second, err := storage.Account().CreateAccount(t.Context(), user.ID, 0, time.Now())
				require.NoError(t, err)

				firstNum, err := strconv.ParseInt(first.Number, 10, 64)
				require.NoError(t, err)
				secondNum, err := strconv.ParseInt(second.Number, 10, 64)
				require.NoError(t, err)

				require.GreaterOrEqual(t, firstNum, int64(1000000000))
				require.Greater(t, secondNum, firstNum)
			})
		})
	})

	t.Run("GetByNumber", func(t *testing.T) {
		t.Run("get ok", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, user models.User) {
				created, err := storage.Account().CreateAccount(t.Context(), user.ID, 100, time.Now())
				require.NoError(t, err)

				got, err := storage.Account().GetByNumber(t.Context(), created.Number)

				require.NoError(t, err)
				require.Equal(t, created.ID, got.ID)
				require.Equal(t, int64(100), got.Balance)
			})
		})

		t.Run("unknown number fail", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, _ models.User) {
				_, err := storage.Account().GetByNumber(t.Context(), "0000000000")

				require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
			})
		})
	})

	t.Run("ListByUser", func(t *testing.T) {
		inTx(t, func(storage repository.Storage, user models.User) {
			first, err := storage.Account().CreateAccount(t.Context(), user.ID, 0, time.Now())
			require.NoError(t, err)
			second, err := storage.Account().CreateAccount(t.Context(), user.ID, 0, time.Now())
			require.NoError(t, err)

			accounts, err := storage.Account().ListByUser(t.Context(), user.ID)

			require.NoError(t, err)
			require.Len(t, accounts, 2)
			require.Equal(t, first.Number, accounts[0].Number)
			require.Equal(t, second.Number, accounts[1].Number)
		})
	})

	t.Run("CountByUser", func(t *testing.T) {
		t.Run("counts active only", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, user models.User) {
				_, err := storage.Account().CreateAccount(t.Context(), user.ID, 0, time.Now())
				require.NoError(t, err)
				closed, err := storage.Account().CreateAccount(t.Context(), user.ID, 0, time.Now())
				require.NoError(t, err)

				err = storage.Account().Close(t.Context(), closed.ID, time.Now())
				require.NoError(t, err)

				count, err := storage.Account().CountByUser(t.Context(), user.ID)

				require.NoError(t, err)
				require.Equal(t, int64(1), count)
			})
		})

		t.Run("zero for unknown user", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, _ models.User) {
				count, err := storage.Account().CountByUser(t.Context(), 99999)

				require.NoError(t, err)
				require.Zero(t, count)
			})
		})
	})

	t.Run("UpdateBalance", func(t *testing.T) {
		t.Run("update ok", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, user models.User) {
				account, err := storage.Account().CreateAccount(t.Context(), user.ID, 100, time.Now())
				require.NoError(t, err)

				err = storage.Account().UpdateBalance(t.Context(), account.ID, 42)
				require.NoError(t, err)

				got, err := storage.Account().GetByNumber(t.Context(), account.Number)
				require.NoError(t, err)
				require.Equal(t, int64(42), got.Balance)
			})
		})

		t.Run("unknown account fail", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, _ models.User) {
				err := storage.Account().UpdateBalance(t.Context(), 99999, 42)

				require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
			})
		})
	})

	t.Run("Close", func(t *testing.T) {
		t.Run("close ok", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, user models.User) {
				account, err := storage.Account().CreateAccount(t.Context(), user.ID, 0, time.Now())
				require.NoError(t, err)
				closedAt := time.Now()

				err = storage.Account().Close(t.Context(), account.ID, closedAt)
				require.NoError(t, err)

				got, err := storage.Account().GetByNumber(t.Context(), account.Number)
				require.NoError(t, err)
				require.Equal(t, models.AccountStatusClosed, got.Status)
				require.NotNil(t, got.ClosedAt)
				require.WithinDuration(t, closedAt, *got.ClosedAt, time.Second)
			})
		})

		t.Run("unknown account fail", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, _ models.User) {
				err := storage.Account().Close(t.Context(), 99999, time.Now())

				require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
			})
		})
	})
}
