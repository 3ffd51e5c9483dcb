package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStore defines the interface for account persistence operations.
// No transactional multi-key guarantee is assumed; the queue's single-writer
// serialization is what makes multi-account updates safe.
type AccountStore interface {
	// GetAccount retrieves an account by its ID.
	// Returns ErrAccountNotFound if no account exists for the ID.
	GetAccount(ctx context.Context, accountID string) (*Account, error)

	// CreateAccount creates a new account with an initial balance.
	// Returns ErrAccountExists if the ID is already taken.
	CreateAccount(ctx context.Context, accountID, userID string, initialBalance decimal.Decimal) error

	// UpdateAccount persists an updated account snapshot.
	// Returns ErrAccountNotFound if the account does not exist.
	UpdateAccount(ctx context.Context, account *Account) error
}

// TransactionStore defines the interface for the append-only transaction
// ledger
type TransactionStore interface {
	// LogTransaction appends an entry to the ledger
	LogTransaction(ctx context.Context, tx Transaction) error

	// TransactionLog returns a snapshot of the ledger. The returned slice is
	// the caller's own copy.
	TransactionLog(ctx context.Context) ([]Transaction, error)
}

// WithdrawalState is the externally observable state of a withdrawal request
type WithdrawalState string

const (
	WithdrawalPending   WithdrawalState = "PENDING"
	WithdrawalCompleted WithdrawalState = "COMPLETED"
	WithdrawalFailed    WithdrawalState = "FAILED"
)

// ErrWithdrawalNotFound is returned when polling a withdrawal ID that was
// never requested.
var ErrWithdrawalNotFound = errors.New("withdrawal request not found")

// WithdrawalClient is the contract of the external system that performs the
// actual off-ledger funds movement. Initiation is fire-and-forget; completion
// is observed by polling.
type WithdrawalClient interface {
	// RequestWithdrawal initiates a withdrawal under a fresh correlation ID
	RequestWithdrawal(ctx context.Context, withdrawalID uuid.UUID, address string, amount decimal.Decimal) error

	// RequestState polls the current state of a withdrawal request
	RequestState(ctx context.Context, withdrawalID uuid.UUID) (WithdrawalState, error)
}
