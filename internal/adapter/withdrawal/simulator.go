package withdrawal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/transfer-backend/internal/domain"
)

// Simulator is an in-process stand-in for the external withdrawal system.
// A request stays PENDING until the configured latency has elapsed, then
// reports COMPLETED. Addresses marked with FailAddress report FAILED instead,
// which lets demos and end-to-end tests exercise the compensation path.
type Simulator struct {
	mu       sync.RWMutex
	latency  time.Duration
	requests map[uuid.UUID]request
	failing  map[string]struct{}
}

type request struct {
	address     string
	amount      decimal.Decimal
	requestedAt time.Time
}

// NewSimulator creates a simulator whose requests complete after latency
func NewSimulator(latency time.Duration) *Simulator {
	return &Simulator{
		latency:  latency,
		requests: make(map[uuid.UUID]request),
		failing:  make(map[string]struct{}),
	}
}

// FailAddress marks an external address so that withdrawals to it fail
func (s *Simulator) FailAddress(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failing[address] = struct{}{}
}

// RequestWithdrawal records a withdrawal request. Fire and forget: the
// request resolves on its own as time passes.
func (s *Simulator) RequestWithdrawal(_ context.Context, withdrawalID uuid.UUID, address string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests[withdrawalID] = request{
		address:     address,
		amount:      amount,
		requestedAt: time.Now(),
	}

	return nil
}

// RequestState reports the current state of a recorded request.
// Returns domain.ErrWithdrawalNotFound for IDs that were never requested.
func (s *Simulator) RequestState(_ context.Context, withdrawalID uuid.UUID) (domain.WithdrawalState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[withdrawalID]
	if !ok {
		return "", domain.ErrWithdrawalNotFound
	}

	if _, failed := s.failing[req.address]; failed {
		return domain.WithdrawalFailed, nil
	}

	if time.Since(req.requestedAt) >= s.latency {
		return domain.WithdrawalCompleted, nil
	}

	return domain.WithdrawalPending, nil
}
