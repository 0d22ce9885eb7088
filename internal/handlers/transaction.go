package handlers

import (
	"net/http"
	"time"

	"github.com/nkiryanov/ledger/internal/handlers/render"
	"github.com/nkiryanov/ledger/internal/logger"
	"github.com/nkiryanov/ledger/internal/models"
)

type transactionResponse struct {
	AccountNumber   string    `json:"accountNumber"`
	TransactionID   string    `json:"transactionId"`
	Type            string    `json:"transactionType"`
	Result          string    `json:"transactionResult"`
	Amount          int64     `json:"amount"`
	BalanceSnapshot int64     `json:"balanceSnapshot"`
	TransactedAt    time.Time `json:"transactedAt"`
}

func toTransactionResponse(tx models.Transaction) transactionResponse {
	return transactionResponse{
		AccountNumber:   tx.AccountNumber,
		TransactionID:   tx.TransactionID,
		Type:            tx.Type,
		Result:          tx.Result,
		Amount:          tx.Amount,
		BalanceSnapshot: tx.BalanceSnapshot,
		TransactedAt:    tx.TransactedAt,
	}
}

func handleUseBalance(transactionService transactionService, l logger.Logger) http.Handler {
	type request struct {
		UserID        int64  `json:"userId" validate:"required"`
		AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
		Amount        int64  `json:"amount" validate:"required,gte=10,lte=1000000000"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		tx, err := transactionService.UseBalance(r.Context(), req.UserID, req.AccountNumber, req.Amount)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, toTransactionResponse(tx))
	})
}

func handleCancelBalance(transactionService transactionService, l logger.Logger) http.Handler {
	type request struct {
		TransactionID string `json:"transactionId" validate:"required,len=10"`
		AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
		Amount        int64  `json:"amount" validate:"required,gte=10,lte=1000000000"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		tx, err := transactionService.CancelBalance(r.Context(), req.TransactionID, req.AccountNumber, req.Amount)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, toTransactionResponse(tx))
	})
}

func handleGetTransaction(transactionService transactionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transactionID := r.PathValue("transactionId")
		if transactionID == "" {
			render.ServiceError(w, "Transaction id is required", http.StatusBadRequest)
			return
		}

		tx, err := transactionService.GetTransaction(r.Context(), transactionID)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, toTransactionResponse(tx))
	})
}
