package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/ledger/internal/apperrors"
	"github.com/nkiryanov/ledger/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

// ON CONFLICT DO NOTHING instead of letting the unique index raise: a raised
// violation would abort the surrounding db transaction, and the orchestrator
// retries id collisions inside one.
const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (account_id, transaction_id, type, result, amount, balance_snapshot, transacted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (transaction_id) DO NOTHING
RETURNING id
`

func (r *TransactionRepo) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	err := r.DB.QueryRow(ctx, createTransaction,
		tx.AccountID, tx.TransactionID, tx.Type, tx.Result, tx.Amount, tx.BalanceSnapshot, tx.TransactedAt,
	).Scan(&tx.ID)

	switch {
	case err == nil:
		return tx, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tx, apperrors.ErrTransactionIDTaken
	default:
		return tx, fmt.Errorf("db error: %w", err)
	}
}

const getTransactionByID = `-- name: getTransactionByID
SELECT t.id, t.account_id, a.number, t.transaction_id, t.type, t.result, t.amount, t.balance_snapshot, t.transacted_at
FROM transactions t
JOIN accounts a ON a.id = t.account_id
WHERE t.transaction_id = $1
`

func (r *TransactionRepo) GetByTransactionID(ctx context.Context, transactionID string) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransactionByID, transactionID)
	tx, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return tx, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tx, apperrors.ErrTransactionNotFound
	default:
		return tx, fmt.Errorf("db error: %w", err)
	}
}

const listTransactionsByAccount = `-- name: listTransactionsByAccount
SELECT t.id, t.account_id, a.number, t.transaction_id, t.type, t.result, t.amount, t.balance_snapshot, t.transacted_at
FROM transactions t
JOIN accounts a ON a.id = t.account_id
WHERE t.account_id = $1
ORDER BY t.id
`

func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listTransactionsByAccount, accountID)
	txs, err := pgx.CollectRows(rows, rowToTransaction)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return txs, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.AccountNumber, &t.TransactionID, &t.Type, &t.Result, &t.Amount, &t.BalanceSnapshot, &t.TransactedAt)
	return t, err
}
