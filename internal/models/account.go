package models

import (
	"time"

	"github.com/nkiryanov/ledger/internal/apperrors"
)

const (
	AccountStatusActive = "ACTIVE"
	AccountStatusClosed = "CLOSED"
)

// Account holds one account's balance in the smallest currency unit.
// Debit and Credit mutate the in-memory value only; serialization of concurrent
// mutation is the responsibility of the per-account lock held by the caller, and
// persistence is the caller's job too.
type Account struct {
	ID           int64
	UserID       int64
	Number       string
	Status       string
	Balance      int64
	RegisteredAt time.Time
	ClosedAt     *time.Time
}

func (a *Account) Closed() bool {
	return a.Status == AccountStatusClosed
}

// Debit subtracts amount from the balance.
// The balance never goes negative: amounts over the current balance are rejected.
func (a *Account) Debit(amount int64) error {
	if amount > a.Balance {
		return apperrors.ErrInsufficientBalance
	}

	a.Balance -= amount
	return nil
}

// Credit adds amount back to the balance.
func (a *Account) Credit(amount int64) error {
	if amount < 0 {
		return apperrors.ErrInvalidAmount
	}

	a.Balance += amount
	return nil
}
