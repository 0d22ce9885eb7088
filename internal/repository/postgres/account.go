package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/ledger/internal/apperrors"
	"github.com/nkiryanov/ledger/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

// Account numbers come from a dedicated sequence starting at 1000000000, so
// they are 10 digits, unique and monotonic even under concurrent creation.
const createAccount = `-- name: CreateAccount
INSERT INTO accounts (user_id, number, status, balance, registered_at)
VALUES ($1, nextval('account_number_seq')::text, $2, $3, $4)
RETURNING id, user_id, number, status, balance, registered_at, closed_at
`

func (r *AccountRepo) CreateAccount(ctx context.Context, userID int64, initialBalance int64, registeredAt time.Time) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccount, userID, models.AccountStatusActive, initialBalance, registeredAt)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	var pgErr *pgconn.PgError

	switch {
	case err == nil:
		return account, nil
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
		return account, apperrors.ErrUserNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const getAccountByNumber = `-- name: getAccountByNumber
SELECT id, user_id, number, status, balance, registered_at, closed_at FROM accounts
WHERE number = $1
`

func (r *AccountRepo) GetByNumber(ctx context.Context, number string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByNumber, number)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const listAccountsByUser = `-- name: listAccountsByUser
SELECT id, user_id, number, status, balance, registered_at, closed_at FROM accounts
WHERE user_id = $1
ORDER BY id
`

func (r *AccountRepo) ListByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, _ := r.DB.Query(ctx, listAccountsByUser, userID)
	accounts, err := pgx.CollectRows(rows, rowToAccount)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return accounts, nil
}

const countAccountsByUser = `-- name: countAccountsByUser
SELECT count(*) FROM accounts
WHERE user_id = $1 AND status = $2
`

// CountByUser counts the user's open accounts. Closed accounts don't count
// against the per-user limit.
func (r *AccountRepo) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.DB.QueryRow(ctx, countAccountsByUser, userID, models.AccountStatusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

const updateAccountBalance = `-- name: updateAccountBalance
UPDATE accounts
SET balance = $2
WHERE id = $1
`

func (r *AccountRepo) UpdateBalance(ctx context.Context, accountID int64, balance int64) error {
	tag, err := r.DB.Exec(ctx, updateAccountBalance, accountID, balance)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}

	return nil
}

const closeAccount = `-- name: closeAccount
UPDATE accounts
SET status = $2, closed_at = $3
WHERE id = $1
`

func (r *AccountRepo) Close(ctx context.Context, accountID int64, closedAt time.Time) error {
	tag, err := r.DB.Exec(ctx, closeAccount, accountID, models.AccountStatusClosed, closedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}

	return nil
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Number, &a.Status, &a.Balance, &a.RegisteredAt, &a.ClosedAt)
	return a, err
}
