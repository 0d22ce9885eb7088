package apperrors

// Error is a typed, recoverable domain failure: a stable machine readable code
// plus a human readable message. Every failure the service reports to callers is
// one of the package sentinels below, possibly wrapped, so callers match them
// with errors.Is and read the code with errors.As.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrUserNotFound        = &Error{Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrAccountNotFound     = &Error{Code: "ACCOUNT_NOT_FOUND", Message: "account not found"}
	ErrUserAccountMismatch = &Error{Code: "USER_ACCOUNT_MISMATCH", Message: "account is not owned by this user"}
	ErrAccountClosed       = &Error{Code: "ACCOUNT_CLOSED", Message: "account is already closed"}
	ErrAccountLimitReached = &Error{Code: "ACCOUNT_LIMIT_REACHED", Message: "maximum number of accounts per user reached"}
	ErrBalanceNotEmpty     = &Error{Code: "BALANCE_NOT_EMPTY", Message: "account balance is not empty"}

	ErrInsufficientBalance = &Error{Code: "INSUFFICIENT_BALANCE", Message: "amount exceeds account balance"}
	ErrInvalidAmount       = &Error{Code: "INVALID_AMOUNT", Message: "amount is invalid"}

	ErrTransactionNotFound        = &Error{Code: "TRANSACTION_NOT_FOUND", Message: "transaction not found"}
	ErrTransactionAccountMismatch = &Error{Code: "TRANSACTION_ACCOUNT_MISMATCH", Message: "transaction does not belong to this account"}
	ErrPartialCancelNotAllowed    = &Error{Code: "PARTIAL_CANCEL_NOT_ALLOWED", Message: "partial cancellation is not allowed"}
	ErrCancelWindowExpired        = &Error{Code: "CANCEL_WINDOW_EXPIRED", Message: "transactions older than one year cannot be cancelled"}

	// ErrTransactionIDTaken never leaves the service layer: the orchestrator
	// regenerates the id and retries the write.
	ErrTransactionIDTaken = &Error{Code: "TRANSACTION_ID_TAKEN", Message: "transaction id already used"}

	ErrLockUnavailable            = &Error{Code: "LOCK_UNAVAILABLE", Message: "account is in use by another transaction"}
	ErrLockCoordinatorUnavailable = &Error{Code: "LOCK_COORDINATOR_UNAVAILABLE", Message: "lock coordinator is unreachable"}
)
