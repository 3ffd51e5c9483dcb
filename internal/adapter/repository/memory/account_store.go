package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/transfer-backend/internal/domain"
)

// AccountStore is an in-memory implementation of domain.AccountStore.
// Values are stored and returned by copy, so a reader concurrent with the
// worker observes a whole snapshot, never a partially written account.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

// NewAccountStore creates an empty in-memory account store
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]domain.Account),
	}
}

// GetAccount retrieves a copy of the account with the given ID
func (s *AccountStore) GetAccount(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return &account, nil
}

// CreateAccount creates a new account with the given initial balance
func (s *AccountStore) CreateAccount(_ context.Context, accountID, userID string, initialBalance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountID]; ok {
		return domain.ErrAccountExists
	}

	s.accounts[accountID] = domain.Account{
		ID:      accountID,
		UserID:  userID,
		Balance: initialBalance,
	}

	return nil
}

// UpdateAccount replaces the stored snapshot of an existing account
func (s *AccountStore) UpdateAccount(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}

	s.accounts[account.ID] = *account

	return nil
}
