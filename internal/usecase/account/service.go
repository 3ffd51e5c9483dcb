package account

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/transfer-backend/internal/domain"
)

// Service handles account creation and direct balance reads. Both bypass the
// transfer queue: creation happens before any transfer can reference the
// account, and balance reads are eventually-consistent snapshots.
type Service struct {
	Accounts domain.AccountStore
}

// NewService creates a new account Service instance
func NewService(accounts domain.AccountStore) *Service {
	return &Service{Accounts: accounts}
}

// Create creates a new account with an initial balance
func (s *Service) Create(ctx context.Context, accountID, userID string, initialBalance decimal.Decimal) error {
	account := &domain.Account{ID: accountID, UserID: userID, Balance: initialBalance}
	if err := account.Validate(); err != nil {
		return err
	}

	if initialBalance.IsNegative() {
		return errors.New("initial balance cannot be negative")
	}

	return s.Accounts.CreateAccount(ctx, accountID, userID, initialBalance)
}

// Balance returns the current balance of an account.
// Returns domain.ErrAccountNotFound if the account does not exist.
func (s *Service) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.Accounts.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return account.Balance, nil
}
