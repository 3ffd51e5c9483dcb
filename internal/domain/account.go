package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrAccountNotFound is returned by account lookups when no account exists
// for the given ID.
var ErrAccountNotFound = errors.New("account not found")

// ErrAccountExists is returned when creating an account with an ID that is
// already taken.
var ErrAccountExists = errors.New("account already exists")

// Account represents a user account holding a single balance.
// Balance is only mutated on the queue's worker goroutine; reads from other
// goroutines observe whole snapshots, never partial values.
type Account struct {
	ID      string
	UserID  string
	Balance decimal.Decimal
}

// Validate ensures the account adheres to domain rules
// Returns an error if validation fails
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("account ID cannot be empty")
	}

	if a.UserID == "" {
		return errors.New("user ID cannot be empty")
	}

	return nil
}
