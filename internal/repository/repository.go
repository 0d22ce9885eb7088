package repository

import (
	"context"
	"time"

	"github.com/nkiryanov/ledger/internal/models"
)

// User repository interface
// Users themselves come from outside this service; the repo exists so accounts
// can reference an owner and tests can seed one
type UserRepo interface {
	CreateUser(ctx context.Context, name string) (models.User, error)

	// Get user by id
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
}

// Account repository interface
type AccountRepo interface {
	// Create account for the user; the account number is allocated from the
	// store's own sequence so concurrent creations never collide
	CreateAccount(ctx context.Context, userID int64, initialBalance int64, registeredAt time.Time) (models.Account, error)

	// Get account by its number
	// If account not found must return apperrors.ErrAccountNotFound
	GetByNumber(ctx context.Context, number string) (models.Account, error)

	ListByUser(ctx context.Context, userID int64) ([]models.Account, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)

	// Persist new balance value for the account
	UpdateBalance(ctx context.Context, accountID int64, balance int64) error

	// Mark account closed and remember when
	Close(ctx context.Context, accountID int64, closedAt time.Time) error
}

// Transaction repository interface, append only
type TransactionRepo interface {
	// Create ledger record
	// If the transaction id is already used must return apperrors.ErrTransactionIDTaken
	// so the caller can regenerate the id and retry
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)

	// Get record by its public transaction id
	// If not found must return apperrors.ErrTransactionNotFound
	GetByTransactionID(ctx context.Context, transactionID string) (models.Transaction, error)

	// List all records for the account, oldest first
	ListByAccount(ctx context.Context, accountID int64) ([]models.Transaction, error)
}

// Storage combines all repositories and provides transaction support
type Storage interface {
	User() UserRepo
	Account() AccountRepo
	Transaction() TransactionRepo

	// InTx runs fn with a Storage bound to a single db transaction.
	// Commits when fn returns nil, rolls back otherwise.
	InTx(ctx context.Context, fn func(Storage) error) error
}
