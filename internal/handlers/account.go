package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nkiryanov/ledger/internal/handlers/render"
	"github.com/nkiryanov/ledger/internal/logger"
	"github.com/nkiryanov/ledger/internal/models"
)

type accountResponse struct {
	AccountNumber string     `json:"accountNumber"`
	Status        string     `json:"status"`
	Balance       int64      `json:"balance"`
	RegisteredAt  time.Time  `json:"registeredAt"`
	ClosedAt      *time.Time `json:"closedAt,omitempty"`
}

func toAccountResponse(account models.Account) accountResponse {
	return accountResponse{
		AccountNumber: account.Number,
		Status:        account.Status,
		Balance:       account.Balance,
		RegisteredAt:  account.RegisteredAt,
		ClosedAt:      account.ClosedAt,
	}
}

func handleCreateAccount(accountService accountService, l logger.Logger) http.Handler {
	type request struct {
		UserID         int64 `json:"userId" validate:"required"`
		InitialBalance int64 `json:"initialBalance" validate:"gte=0,lte=1000000000"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		account, err := accountService.CreateAccount(r.Context(), req.UserID, req.InitialBalance)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSONWithStatus(w, toAccountResponse(account), http.StatusCreated)
	})
}

func handleCloseAccount(accountService accountService, l logger.Logger) http.Handler {
	type request struct {
		UserID        int64  `json:"userId" validate:"required"`
		AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		account, err := accountService.CloseAccount(r.Context(), req.UserID, req.AccountNumber)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, toAccountResponse(account))
	})
}

func handleListAccounts(accountService accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
		if err != nil || userID <= 0 {
			render.ServiceError(w, "Query parameter 'user_id' must be a positive integer", http.StatusBadRequest)
			return
		}

		accounts, err := accountService.ListAccounts(r.Context(), userID)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		response := make([]accountResponse, 0, len(accounts))
		for _, account := range accounts {
			response = append(response, toAccountResponse(account))
		}

		render.JSON(w, response)
	})
}
