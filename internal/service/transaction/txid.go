package transaction

import (
	"strings"

	"github.com/google/uuid"
)

const transactionIDLength = 10

// NewTransactionID returns a short opaque id: a random UUID with the separators
// stripped, truncated to 10 characters. Safe for concurrent use, holds no
// state. The generator does not guarantee global uniqueness at this length;
// the ledger store enforces it and the caller retries on collision.
func NewTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:transactionIDLength]
}
