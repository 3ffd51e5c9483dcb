package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Task is one unit of transfer work admitted to the queue. It is a tagged
// variant: Kind selects between the internal fields (ToAccountID) and the
// external fields (ExternalAddress). New transfer kinds are added by
// extending the enumeration, not by subclassing.
type Task struct {
	Kind          TransferKind
	ID            string
	FromAccountID string
	// ToAccountID is set for internal transfers only
	ToAccountID string
	// ExternalAddress is set for external transfers only
	ExternalAddress string
	Amount          decimal.Decimal
}

// NewInternalTask creates a task moving funds between two accounts.
// The task ID is a fresh UUID, so two tasks with identical arguments are
// still distinct.
func NewInternalTask(fromAccountID, toAccountID string, amount decimal.Decimal) *Task {
	return &Task{
		Kind:          KindInternal,
		ID:            uuid.NewString(),
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
		Amount:        amount,
	}
}

// NewExternalTask creates a task withdrawing funds to an external address
func NewExternalTask(fromAccountID, externalAddress string, amount decimal.Decimal) *Task {
	return &Task{
		Kind:            KindExternal,
		ID:              uuid.NewString(),
		FromAccountID:   fromAccountID,
		ExternalAddress: externalAddress,
		Amount:          amount,
	}
}

// InitialProgress returns the INITIATED progress record owned by this task.
// It is registered with the queue at admission time.
func (t *Task) InitialProgress() TransferProgress {
	return TransferProgress{TransferID: t.ID, Status: TransferInitiated}
}
