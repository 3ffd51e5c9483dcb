package memory

import (
	"context"
	"sync"

	"github.com/ledgerline/transfer-backend/internal/domain"
)

// TransactionStore is an in-memory, append-only implementation of
// domain.TransactionStore. Entries are never mutated after being logged.
type TransactionStore struct {
	mu     sync.RWMutex
	log    []domain.Transaction
	lastID string
}

// NewTransactionStore creates an empty in-memory transaction ledger
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{}
}

// LogTransaction appends an entry to the ledger
func (s *TransactionStore) LogTransaction(_ context.Context, tx domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = append(s.log, tx)
	s.lastID = tx.TransactionID

	return nil
}

// TransactionLog returns a snapshot copy of the ledger
func (s *TransactionStore) TransactionLog(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]domain.Transaction, len(s.log))
	copy(snapshot, s.log)

	return snapshot, nil
}

// LastTransactionID returns the ID of the most recently logged entry, or the
// empty string for an empty ledger
func (s *TransactionStore) LastTransactionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastID
}
