package models

import (
	"time"
)

const (
	TransactionTypeUse    = "USE"
	TransactionTypeCancel = "CANCEL"

	TransactionResultSuccess = "SUCCESS"
	TransactionResultFailed  = "FAILED"
)

// Transaction is one append-only ledger record. Every orchestrated attempt
// against an account produces exactly one record, rejected attempts included.
// BalanceSnapshot is the account balance at the moment the record was written.
type Transaction struct {
	ID              int64
	AccountID       int64
	AccountNumber   string
	TransactionID   string
	Type            string
	Result          string
	Amount          int64
	BalanceSnapshot int64
	TransactedAt    time.Time
}
