package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nkiryanov/ledger/internal/apperrors"
	"github.com/nkiryanov/ledger/internal/locker"
	"github.com/nkiryanov/ledger/internal/logger"
	"github.com/nkiryanov/ledger/internal/models"
	"github.com/nkiryanov/ledger/internal/repository"
)

// How long a cancelled transaction may lie in the past
const cancelWindow = 1 // years

// How many times to regenerate the transaction id when the store reports it taken
const maxIDAttempts = 5

// Service orchestrates balance mutations. Every mutating entry point runs under
// the per-account distributed lock, so no two requests ever race on one
// account's balance, while different accounts proceed fully in parallel.
type Service struct {
	storage repository.Storage
	locker  locker.Locker
	logger  logger.Logger

	// Injectable for tests
	newID func() string
	now   func() time.Time
}

func NewService(storage repository.Storage, l locker.Locker, log logger.Logger) *Service {
	return &Service{
		storage: storage,
		locker:  l,
		logger:  log,
		newID:   NewTransactionID,
		now:     time.Now,
	}
}

// UseBalance debits amount from the account and appends a SUCCESS USE record.
//
// Checked in order, first failing condition wins: account exists, account is
// owned by userID, account is active, amount fits the balance. A business rule
// rejection still leaves an audit trail: a FAILED record with the untouched
// balance snapshot is written before the error reaches the caller.
func (s *Service) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (models.Transaction, error) {
	if amount <= 0 {
		return models.Transaction{}, apperrors.ErrInvalidAmount
	}

	var tx models.Transaction
	err := locker.WithLock(ctx, s.locker, s.logger, locker.AccountKey(accountNumber), func(ctx context.Context) error {
		var err error
		tx, err = s.useLocked(ctx, userID, accountNumber, amount)
		return err
	})

	if err != nil && isBusinessRejection(err) {
		s.recordFailed(ctx, models.TransactionTypeUse, accountNumber, amount)
	}

	return tx, err
}

func (s *Service) useLocked(ctx context.Context, userID int64, accountNumber string, amount int64) (models.Transaction, error) {
	var saved models.Transaction

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		account, err := store.Account().GetByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}
		if account.UserID != userID {
			return apperrors.ErrUserAccountMismatch
		}
		if account.Closed() {
			return apperrors.ErrAccountClosed
		}

		if err := account.Debit(amount); err != nil {
			return err
		}
		if err := store.Account().UpdateBalance(ctx, account.ID, account.Balance); err != nil {
			return err
		}

		saved, err = s.appendRecord(ctx, store, account, models.TransactionTypeUse, models.TransactionResultSuccess, amount)
		return err
	})

	return saved, err
}

// CancelBalance credits amount back and appends a SUCCESS CANCEL record.
//
// Only full cancellation of an existing transaction on the right account is
// allowed, and only within one year of the original transaction. Business rule
// rejections get a FAILED CANCEL record, same audit contract as UseBalance.
func (s *Service) CancelBalance(ctx context.Context, transactionID string, accountNumber string, amount int64) (models.Transaction, error) {
	var tx models.Transaction
	err := locker.WithLock(ctx, s.locker, s.logger, locker.AccountKey(accountNumber), func(ctx context.Context) error {
		var err error
		tx, err = s.cancelLocked(ctx, transactionID, accountNumber, amount)
		return err
	})

	if err != nil && isBusinessRejection(err) {
		s.recordFailed(ctx, models.TransactionTypeCancel, accountNumber, amount)
	}

	return tx, err
}

func (s *Service) cancelLocked(ctx context.Context, transactionID string, accountNumber string, amount int64) (models.Transaction, error) {
	var saved models.Transaction

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		original, err := store.Transaction().GetByTransactionID(ctx, transactionID)
		if err != nil {
			return err
		}

		account, err := store.Account().GetByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}

		if original.AccountID != account.ID {
			return apperrors.ErrTransactionAccountMismatch
		}
		if original.Amount != amount {
			return apperrors.ErrPartialCancelNotAllowed
		}
		if original.TransactedAt.Before(s.now().AddDate(-cancelWindow, 0, 0)) {
			return apperrors.ErrCancelWindowExpired
		}

		if err := account.Credit(amount); err != nil {
			return err
		}
		if err := store.Account().UpdateBalance(ctx, account.ID, account.Balance); err != nil {
			return err
		}

		saved, err = s.appendRecord(ctx, store, account, models.TransactionTypeCancel, models.TransactionResultSuccess, amount)
		return err
	})

	return saved, err
}

// GetTransaction is a pure lookup by public transaction id.
func (s *Service) GetTransaction(ctx context.Context, transactionID string) (models.Transaction, error) {
	return s.storage.Transaction().GetByTransactionID(ctx, transactionID)
}

// recordFailed writes the compensating FAILED record for a rejected attempt.
// It runs under its own lock acquisition, after the failed attempt's lock is
// gone. Failures here are logged and swallowed: the record is an audit side
// effect and must never mask the business error the caller is about to see.
func (s *Service) recordFailed(ctx context.Context, txType string, accountNumber string, amount int64) {
	err := locker.WithLock(ctx, s.locker, s.logger, locker.AccountKey(accountNumber), func(ctx context.Context) error {
		account, err := s.storage.Account().GetByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}

		_, err = s.appendRecord(ctx, s.storage, account, txType, models.TransactionResultFailed, amount)
		return err
	})

	if err != nil {
		s.logger.Error("failed to record rejected transaction",
			"account_number", accountNumber,
			"type", txType,
			"amount", amount,
			"error", err,
		)
	}
}

// appendRecord writes one ledger record with the account's current balance as
// the snapshot. The id generator gives no uniqueness guarantee, so a taken id
// is regenerated and the write retried a bounded number of times.
func (s *Service) appendRecord(ctx context.Context, store repository.Storage, account models.Account, txType string, result string, amount int64) (models.Transaction, error) {
	tx := models.Transaction{
		AccountID:       account.ID,
		AccountNumber:   account.Number,
		Type:            txType,
		Result:          result,
		Amount:          amount,
		BalanceSnapshot: account.Balance,
		TransactedAt:    s.now(),
	}

	for i := 0; i < maxIDAttempts; i++ {
		tx.TransactionID = s.newID()

		saved, err := store.Transaction().Create(ctx, tx)
		switch {
		case err == nil:
			return saved, nil
		case errors.Is(err, apperrors.ErrTransactionIDTaken):
			s.logger.Warn("transaction id collision, regenerating", "transaction_id", tx.TransactionID)
			continue
		default:
			return saved, err
		}
	}

	return models.Transaction{}, fmt.Errorf("transaction id still colliding after %d attempts", maxIDAttempts)
}

// isBusinessRejection tells a rejected attempt apart from conditions where no
// attempt against a resolved account happened (not found, ownership mismatch).
// Only the former leaves a compensating FAILED record.
func isBusinessRejection(err error) bool {
	for _, target := range []error{
		apperrors.ErrAccountClosed,
		apperrors.ErrInsufficientBalance,
		apperrors.ErrInvalidAmount,
		apperrors.ErrPartialCancelNotAllowed,
		apperrors.ErrCancelWindowExpired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
