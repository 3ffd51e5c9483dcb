package transfer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/transfer-backend/internal/domain"
	"github.com/ledgerline/transfer-backend/internal/queue"
)

const (
	defaultWithdrawalPollInterval = 500 * time.Millisecond
	defaultWithdrawalDeadline     = time.Second
)

// Config carries the tunables of the external-withdrawal wait protocol
type Config struct {
	// WithdrawalPollInterval is how often the poller checks withdrawal state
	WithdrawalPollInterval time.Duration
	// WithdrawalDeadline is the overall deadline for an external withdrawal
	// to resolve before the transfer is compensated and fails with TIMEOUT
	WithdrawalDeadline time.Duration
}

// Service validates, executes, and compensates transfers. All balance
// mutation happens on the queue's worker goroutine, which is the only writer
// of account state; no per-account locking is needed.
type Service struct {
	Accounts     domain.AccountStore
	Transactions domain.TransactionStore
	Withdrawals  domain.WithdrawalClient
	Queue        *queue.Queue

	pollInterval time.Duration
	deadline     time.Duration
	logger       *zap.Logger
}

// NewService creates a new transfer Service instance
func NewService(
	accounts domain.AccountStore,
	transactions domain.TransactionStore,
	withdrawals domain.WithdrawalClient,
	q *queue.Queue,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.WithdrawalPollInterval <= 0 {
		cfg.WithdrawalPollInterval = defaultWithdrawalPollInterval
	}
	if cfg.WithdrawalDeadline <= 0 {
		cfg.WithdrawalDeadline = defaultWithdrawalDeadline
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		Accounts:     accounts,
		Transactions: transactions,
		Withdrawals:  withdrawals,
		Queue:        q,
		pollInterval: cfg.WithdrawalPollInterval,
		deadline:     cfg.WithdrawalDeadline,
		logger:       logger,
	}
}

// Transfer moves funds between two accounts. It constructs a task, submits it
// to the queue, and blocks until the worker has executed it.
func (s *Service) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal) domain.TransferResult {
	task := domain.NewInternalTask(fromAccountID, toAccountID, amount)
	return s.Queue.Submit(ctx, task, s.run)
}

// ExternalTransfer withdraws funds from an account to an external address
func (s *Service) ExternalTransfer(ctx context.Context, fromAccountID, externalAddress string, amount decimal.Decimal) domain.TransferResult {
	task := domain.NewExternalTask(fromAccountID, externalAddress, amount)
	return s.Queue.Submit(ctx, task, s.run)
}

// TransferProgress returns the progress record for a transfer ID
func (s *Service) TransferProgress(transferID string) domain.TransferProgress {
	return s.Queue.Progress(transferID)
}

// AccountBalance reads a balance directly from the store, bypassing the
// queue. The read is not serialized against in-flight worker mutations: it
// may observe a pre- or post-mutation snapshot, never a partial value.
func (s *Service) AccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.Accounts.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return account.Balance, nil
}

// run is the single dispatch routine keyed on the task tag
func (s *Service) run(ctx context.Context, task *domain.Task) domain.TransferResult {
	switch task.Kind {
	case domain.KindInternal:
		return s.executeInternal(ctx, task)
	case domain.KindExternal:
		return s.executeExternal(ctx, task)
	default:
		return domain.Failure("Unsupported transfer kind", task.ID, domain.ErrorCodeUnknown)
	}
}

// executeInternal performs an account-to-account transfer
// Logic:
//  1. Append a PROCESSING ledger entry
//  2. Load both accounts; either missing -> INVALID_ACCOUNT
//  3. Check funds; balance < amount -> INSUFFICIENT_FUNDS (equality is
//     allowed, a transfer may zero an account)
//  4. Same source and destination -> success with no mutation (nets to zero)
//  5. Debit from, credit to, persist both
//  6. On persistence failure, reverse the mutation (best effort) -> UNKNOWN
//  7. Append a SUCCESS entry and return success
func (s *Service) executeInternal(ctx context.Context, task *domain.Task) domain.TransferResult {
	s.appendLedger(ctx, task, task.ToAccountID, domain.TransactionProcessing)

	from, errFrom := s.Accounts.GetAccount(ctx, task.FromAccountID)
	to, errTo := s.Accounts.GetAccount(ctx, task.ToAccountID)

	if errors.Is(errFrom, domain.ErrAccountNotFound) || errors.Is(errTo, domain.ErrAccountNotFound) {
		s.appendLedger(ctx, task, task.ToAccountID, domain.TransactionFailure)
		return domain.Failure("Invalid account ID", task.ID, domain.ErrorCodeInvalidAccount)
	}

	if errFrom != nil || errTo != nil {
		s.appendLedger(ctx, task, task.ToAccountID, domain.TransactionFailure)
		return domain.Failure("Transfer failed", task.ID, domain.ErrorCodeUnknown)
	}

	if from.Balance.LessThan(task.Amount) {
		s.appendLedger(ctx, task, task.ToAccountID, domain.TransactionFailure)
		return domain.Failure("Insufficient funds", task.ID, domain.ErrorCodeInsufficientFunds)
	}

	// A self-transfer nets to zero. Record it without touching the balance:
	// debiting one snapshot and crediting another of the same account would
	// let the credited write win and create money.
	if task.FromAccountID == task.ToAccountID {
		s.appendLedger(ctx, task, task.ToAccountID, domain.TransactionSuccess)
		return domain.Success(task.ID)
	}

	from.Balance = from.Balance.Sub(task.Amount)
	to.Balance = to.Balance.Add(task.Amount)

	if err := s.persistPair(ctx, from, to); err != nil {
		s.rollback(ctx, from, to, task.Amount)
		s.appendLedger(ctx, task, task.ToAccountID, domain.TransactionFailure)

		return domain.Failure("Transfer failed: "+err.Error(), task.ID, domain.ErrorCodeUnknown)
	}

	s.appendLedger(ctx, task, task.ToAccountID, domain.TransactionSuccess)

	return domain.Success(task.ID)
}

// executeExternal performs an account-to-external-address withdrawal
// Logic:
//  1. Append a PROCESSING ledger entry
//  2. Load the source account; missing -> INVALID_ACCOUNT, short ->
//     INSUFFICIENT_FUNDS (same < rule as internal transfers)
//  3. Debit and persist; on failure compensate -> UNKNOWN
//  4. Append SUCCESS for the debit leg, issue the withdrawal request under a
//     fresh correlation ID
//  5. Enter the wait-for-completion protocol; its outcome decides the result
func (s *Service) executeExternal(ctx context.Context, task *domain.Task) domain.TransferResult {
	s.appendLedger(ctx, task, task.ExternalAddress, domain.TransactionProcessing)

	from, err := s.Accounts.GetAccount(ctx, task.FromAccountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		s.appendLedger(ctx, task, task.ExternalAddress, domain.TransactionFailure)
		return domain.Failure("Invalid account ID", task.ID, domain.ErrorCodeInvalidAccount)
	}

	if err != nil {
		s.appendLedger(ctx, task, task.ExternalAddress, domain.TransactionFailure)
		return domain.Failure("Transfer failed", task.ID, domain.ErrorCodeUnknown)
	}

	if from.Balance.LessThan(task.Amount) {
		s.appendLedger(ctx, task, task.ExternalAddress, domain.TransactionFailure)
		return domain.Failure("Insufficient funds", task.ID, domain.ErrorCodeInsufficientFunds)
	}

	from.Balance = from.Balance.Sub(task.Amount)

	if err := s.Accounts.UpdateAccount(ctx, from); err != nil {
		s.rollback(ctx, from, nil, task.Amount)
		s.appendLedger(ctx, task, task.ExternalAddress, domain.TransactionFailure)

		return domain.Failure("Transfer failed: "+err.Error(), task.ID, domain.ErrorCodeUnknown)
	}

	s.appendLedger(ctx, task, task.ExternalAddress, domain.TransactionSuccess)

	withdrawalID := uuid.New()
	if err := s.Withdrawals.RequestWithdrawal(ctx, withdrawalID, task.ExternalAddress, task.Amount); err != nil {
		s.rollback(ctx, from, nil, task.Amount)
		s.appendLedger(ctx, task, task.ExternalAddress, domain.TransactionFailure)

		return domain.Failure("Transfer failed: "+err.Error(), task.ID, domain.ErrorCodeUnknown)
	}

	return s.waitForWithdrawal(ctx, task, from, withdrawalID)
}

// waitForWithdrawal resolves a pending withdrawal by racing a fixed-interval
// poller against the overall deadline. The resolved flag is a
// single-assignment guard: whichever side wins it commits the outcome, and
// the loser becomes a no-op, so compensation is applied at most once and the
// caller unblocks exactly once.
func (s *Service) waitForWithdrawal(ctx context.Context, task *domain.Task, from *domain.Account, withdrawalID uuid.UUID) domain.TransferResult {
	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcome := make(chan domain.TransferResult, 1)

	var resolved atomic.Bool

	go s.pollWithdrawal(pollCtx, task, from, withdrawalID, &resolved, outcome)

	deadline := time.NewTimer(s.deadline)
	defer deadline.Stop()

	select {
	case res := <-outcome:
		return res
	case <-deadline.C:
		if resolved.CompareAndSwap(false, true) {
			cancel()
			s.rollback(ctx, from, nil, task.Amount)
			s.logger.Warn("withdrawal deadline exceeded",
				zap.String("task_id", task.ID),
				zap.String("withdrawal_id", withdrawalID.String()),
			)

			return domain.Failure("Transfer timed out", task.ID, domain.ErrorCodeTimeout)
		}

		// The poller resolved just before the deadline fired; its outcome
		// wins and the timer becomes a no-op.
		cancel()

		return <-outcome
	}
}

// pollWithdrawal checks withdrawal state at a fixed interval until the
// request reaches a terminal state, the context is cancelled, or a poll
// fails. It commits an outcome only if it wins the resolved flag.
func (s *Service) pollWithdrawal(
	ctx context.Context,
	task *domain.Task,
	from *domain.Account,
	withdrawalID uuid.UUID,
	resolved *atomic.Bool,
	outcome chan<- domain.TransferResult,
) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		state, err := s.Withdrawals.RequestState(ctx, withdrawalID)
		if err != nil {
			if resolved.CompareAndSwap(false, true) {
				s.rollback(ctx, from, nil, task.Amount)
				outcome <- domain.Failure("External transfer failed: "+err.Error(), task.ID, domain.ErrorCodeUnknown)
			}

			return
		}

		switch state {
		case domain.WithdrawalCompleted:
			if resolved.CompareAndSwap(false, true) {
				outcome <- domain.Success(task.ID)
			}

			return
		case domain.WithdrawalFailed:
			if resolved.CompareAndSwap(false, true) {
				s.rollback(ctx, from, nil, task.Amount)
				outcome <- domain.Failure("External transfer failed", task.ID, domain.ErrorCodeExternalTransferFailed)
			}

			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// persistPair persists both sides of an internal transfer
func (s *Service) persistPair(ctx context.Context, from, to *domain.Account) error {
	if err := s.Accounts.UpdateAccount(ctx, from); err != nil {
		return err
	}

	return s.Accounts.UpdateAccount(ctx, to)
}

// rollback is the symmetric compensation: credit back what was debited,
// debit back what was credited. Best effort; a failing rollback write is
// logged, not propagated.
func (s *Service) rollback(ctx context.Context, from, to *domain.Account, amount decimal.Decimal) {
	if from != nil {
		from.Balance = from.Balance.Add(amount)
		if err := s.Accounts.UpdateAccount(ctx, from); err != nil {
			s.logger.Error("rollback failed for source account",
				zap.String("account_id", from.ID),
				zap.Error(err),
			)
		}
	}

	if to != nil {
		to.Balance = to.Balance.Sub(amount)
		if err := s.Accounts.UpdateAccount(ctx, to); err != nil {
			s.logger.Error("rollback failed for destination account",
				zap.String("account_id", to.ID),
				zap.Error(err),
			)
		}
	}
}

// appendLedger appends one entry for the task to the transaction ledger.
// Ledger writes are best effort relative to the transfer outcome: a failing
// append is logged but does not change the transfer result.
func (s *Service) appendLedger(ctx context.Context, task *domain.Task, toRef string, status domain.TransactionStatus) {
	tx := domain.Transaction{
		TransactionID: task.ID,
		FromRef:       task.FromAccountID,
		ToRef:         toRef,
		Amount:        task.Amount,
		Kind:          task.Kind,
		Status:        status,
	}

	if err := s.Transactions.LogTransaction(ctx, tx); err != nil {
		s.logger.Error("failed to append transaction log",
			zap.String("task_id", task.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)

		return
	}

	s.logger.Debug("transaction logged",
		zap.String("task_id", task.ID),
		zap.String("kind", string(task.Kind)),
		zap.String("status", string(status)),
		zap.String("from", task.FromAccountID),
		zap.String("to", toRef),
		zap.String("amount", task.Amount.String()),
	)
}
