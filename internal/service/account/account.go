package account

import (
	"context"
	"time"

	"github.com/nkiryanov/ledger/internal/apperrors"
	"github.com/nkiryanov/ledger/internal/locker"
	"github.com/nkiryanov/ledger/internal/logger"
	"github.com/nkiryanov/ledger/internal/models"
	"github.com/nkiryanov/ledger/internal/repository"
)

const maxAccountsPerUser = 10

// Service provisions accounts: creation, closing and listing.
// Closing takes the same per-account lock the transaction orchestrator uses, so
// an account can never be closed while a balance mutation is in flight.
type Service struct {
	storage repository.Storage
	locker  locker.Locker
	logger  logger.Logger

	now func() time.Time
}

func NewService(storage repository.Storage, l locker.Locker, log logger.Logger) *Service {
	return &Service{
		storage: storage,
		locker:  l,
		logger:  log,
		now:     time.Now,
	}
}

func (s *Service) CreateAccount(ctx context.Context, userID int64, initialBalance int64) (models.Account, error) {
	if initialBalance < 0 {
		return models.Account{}, apperrors.ErrInvalidAmount
	}

	var account models.Account
	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		if _, err := store.User().GetUserByID(ctx, userID); err != nil {
			return err
		}

		count, err := store.Account().CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count >= maxAccountsPerUser {
			return apperrors.ErrAccountLimitReached
		}

		account, err = store.Account().CreateAccount(ctx, userID, initialBalance, s.now())
		return err
	})

	return account, err
}

// CloseAccount marks the account closed. The balance must be empty: closed
// accounts keep no money. Runs under the account lock so it never interleaves
// with a balance mutation.
func (s *Service) CloseAccount(ctx context.Context, userID int64, accountNumber string) (models.Account, error) {
	var account models.Account

	err := locker.WithLock(ctx, s.locker, s.logger, locker.AccountKey(accountNumber), func(ctx context.Context) error {
		return s.storage.InTx(ctx, func(store repository.Storage) error {
			var err error
			account, err = store.Account().GetByNumber(ctx, accountNumber)
			if err != nil {
				return err
			}

			if account.UserID != userID {
				return apperrors.ErrUserAccountMismatch
			}
			if account.Closed() {
				return apperrors.ErrAccountClosed
			}
			if account.Balance > 0 {
				return apperrors.ErrBalanceNotEmpty
			}

			closedAt := s.now()
			if err := store.Account().Close(ctx, account.ID, closedAt); err != nil {
				return err
			}

			account.Status = models.AccountStatusClosed
			account.ClosedAt = &closedAt
			return nil
		})
	})

	return account, err
}

func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	if _, err := s.storage.User().GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	return s.storage.Account().ListByUser(ctx, userID)
}
