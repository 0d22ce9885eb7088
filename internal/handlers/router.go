package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/ledger/internal/handlers/middleware"
	"github.com/nkiryanov/ledger/internal/logger"
	"github.com/nkiryanov/ledger/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	transactionService transactionService,
	accountService accountService,
	logger logger.Logger,
) http.Handler {
	api := http.NewServeMux()

	api.Handle("POST /transaction/use", handleUseBalance(transactionService, logger))
	api.Handle("POST /transaction/cancel", handleCancelBalance(transactionService, logger))
	api.Handle("GET /transaction/{transactionId}", handleGetTransaction(transactionService, logger))

	api.Handle("POST /account", handleCreateAccount(accountService, logger))
	api.Handle("DELETE /account", handleCloseAccount(accountService, logger))
	api.Handle("GET /account", handleListAccounts(accountService, logger))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type transactionService interface {
	// Debit amount from the account under the per-account lock.
	// Rejections by business rules leave a FAILED ledger record.
	UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (models.Transaction, error)

	// Refund a previously used amount back to the account. The amount must
	// match the original transaction exactly and the transaction must not be
	// older than one year.
	CancelBalance(ctx context.Context, transactionID string, accountNumber string, amount int64) (models.Transaction, error)

	GetTransaction(ctx context.Context, transactionID string) (models.Transaction, error)
}

type accountService interface {
	CreateAccount(ctx context.Context, userID int64, initialBalance int64) (models.Account, error)
	CloseAccount(ctx context.Context, userID int64, accountNumber string) (models.Account, error)
	ListAccounts(ctx context.Context, userID int64) ([]models.Account, error)
}
