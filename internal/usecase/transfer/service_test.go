package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/ledgerline/transfer-backend/internal/domain"
	"github.com/ledgerline/transfer-backend/internal/queue"
)

// MockAccountStore is a mock implementation of AccountStore for testing
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountStore) CreateAccount(ctx context.Context, accountID, userID string, initialBalance decimal.Decimal) error {
	args := m.Called(ctx, accountID, userID, initialBalance)
	return args.Error(0)
}

func (m *MockAccountStore) UpdateAccount(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockTransactionStore is a mock implementation of TransactionStore that also
// records every logged entry for assertions
type MockTransactionStore struct {
	mock.Mock

	logged []domain.Transaction
}

func (m *MockTransactionStore) LogTransaction(ctx context.Context, tx domain.Transaction) error {
	args := m.Called(ctx, tx)
	if args.Error(0) == nil {
		m.logged = append(m.logged, tx)
	}
	return args.Error(0)
}

func (m *MockTransactionStore) TransactionLog(ctx context.Context) ([]domain.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// MockWithdrawalClient is a mock implementation of WithdrawalClient
type MockWithdrawalClient struct {
	mock.Mock
}

func (m *MockWithdrawalClient) RequestWithdrawal(ctx context.Context, withdrawalID uuid.UUID, address string, amount decimal.Decimal) error {
	args := m.Called(ctx, withdrawalID, address, amount)
	return args.Error(0)
}

func (m *MockWithdrawalClient) RequestState(ctx context.Context, withdrawalID uuid.UUID) (domain.WithdrawalState, error) {
	args := m.Called(ctx, withdrawalID)
	return args.Get(0).(domain.WithdrawalState), args.Error(1)
}

func newTestService(t *testing.T, accounts domain.AccountStore, transactions domain.TransactionStore, withdrawals domain.WithdrawalClient) *Service {
	t.Helper()

	q := queue.New(64, zap.NewNop())
	t.Cleanup(q.Shutdown)

	cfg := Config{
		WithdrawalPollInterval: 5 * time.Millisecond,
		WithdrawalDeadline:     250 * time.Millisecond,
	}

	return NewService(accounts, transactions, withdrawals, q, cfg, zap.NewNop())
}

func ledgerStatuses(entries []domain.Transaction) []domain.TransactionStatus {
	statuses := make([]domain.TransactionStatus, 0, len(entries))
	for _, tx := range entries {
		statuses = append(statuses, tx.Status)
	}
	return statuses
}

func TestTransfer_InvalidAccount(t *testing.T) {
	accounts := new(MockAccountStore)
	transactions := new(MockTransactionStore)
	withdrawals := new(MockWithdrawalClient)

	service := newTestService(t, accounts, transactions, withdrawals)

	to := &domain.Account{ID: "acc-2", UserID: "user-2", Balance: decimal.NewFromInt(1000)}

	transactions.On("LogTransaction", mock.Anything, mock.Anything).Return(nil)
	accounts.On("GetAccount", mock.Anything, "ghost").Return(nil, domain.ErrAccountNotFound)
	accounts.On("GetAccount", mock.Anything, "acc-2").Return(to, nil)

	result := service.Transfer(context.Background(), "ghost", "acc-2", decimal.NewFromInt(100))

	assert.Equal(t, domain.ResultFailure, result.Status)
	assert.Equal(t, domain.ErrorCodeInvalidAccount, result.ErrorCode)
	assert.Equal(t, "Invalid account ID", result.Message)

	// No balance may change on a validation failure.
	accounts.AssertNotCalled(t, "UpdateAccount")

	// The ledger records the attempt and its failure as separate entries.
	assert.Equal(t,
		[]domain.TransactionStatus{domain.TransactionProcessing, domain.TransactionFailure},
		ledgerStatuses(transactions.logged),
	)

	assert.Equal(t, domain.TransferFailed, service.TransferProgress(result.TaskID).Status)
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	accounts := new(MockAccountStore)
	transactions := new(MockTransactionStore)
	withdrawals := new(MockWithdrawalClient)

	service := newTestService(t, accounts, transactions, withdrawals)

	from := &domain.Account{ID: "acc-1", UserID: "user-1", Balance: decimal.NewFromInt(1000)}
	to := &domain.Account{ID: "acc-2", UserID: "user-2", Balance: decimal.NewFromInt(1000)}

	transactions.On("LogTransaction", mock.Anything, mock.Anything).Return(nil)
	accounts.On("GetAccount", mock.Anything, "acc-1").Return(from, nil)
	accounts.On("GetAccount", mock.Anything, "acc-2").Return(to, nil)

	result := service.Transfer(context.Background(), "acc-1", "acc-2", decimal.NewFromInt(2000))

	assert.Equal(t, domain.ResultFailure, result.Status)
	assert.Equal(t, domain.ErrorCodeInsufficientFunds, result.ErrorCode)
	assert.Equal(t, "Insufficient funds", result.Message)
	accounts.AssertNotCalled(t, "UpdateAccount")
}

func TestTransfer_ExactBalanceIsAllowed(t *testing.T) {
	accounts := new(MockAccountStore)
	transactions := new(MockTransactionStore)
	withdrawals := new(MockWithdrawalClient)

	service := newTestService(t, accounts, transactions, withdrawals)

	from := &domain.Account{ID: "acc-1", UserID: "user-1", Balance: decimal.NewFromInt(100)}
	to := &domain.Account{ID: "acc-2", UserID: "user-2", Balance: decimal.NewFromInt(50)}

	transactions.On("LogTransaction", mock.Anything, mock.Anything).Return(nil)
	accounts.On("GetAccount", mock.Anything, "acc-1").Return(from, nil)
	accounts.On("GetAccount", mock.Anything, "acc-2").Return(to, nil)
	accounts.On("UpdateAccount", mock.Anything, mock.Anything).Return(nil)

	// A transfer equal to the balance may zero the account.
	result := service.Transfer(context.Background(), "acc-1", "acc-2", decimal.NewFromInt(100))

	assert.Equal(t, domain.ResultSuccess, result.Status)
	assert.True(t, from.Balance.IsZero())
	assert.True(t, decimal.NewFromInt(150).Equal(to.Balance))
	assert.Equal(t, domain.TransferCompleted, service.TransferProgress(result.TaskID).Status)
}

func TestTransfer_SameAccountDoesNotWrite(t *testing.T) {
	accounts := new(MockAccountStore)
	transactions := new(MockTransactionStore)
	withdrawals := new(MockWithdrawalClient)

	service := newTestService(t, accounts, transactions, withdrawals)

	acc := &domain.Account{ID: "acc-1", UserID: "user-1", Balance: decimal.NewFromInt(1000)}

	transactions.On("LogTransaction", mock.Anything, mock.Anything).Return(nil)
	accounts.On("GetAccount", mock.Anything, "acc-1").Return(acc, nil)

	result := service.Transfer(context.Background(), "acc-1", "acc-1", decimal.NewFromInt(100))

	assert.Equal(t, domain.ResultSuccess, result.Status)
	assert.True(t, decimal.NewFromInt(1000).Equal(acc.Balance))

	// No store write may happen for a self-transfer.
	accounts.AssertNotCalled(t, "UpdateAccount", mock.Anything, mock.Anything)

	assert.Equal(t,
		[]domain.TransactionStatus{domain.TransactionProcessing, domain.TransactionSuccess},
		ledgerStatuses(transactions.logged),
	)
}

func TestTransfer_PersistFailureRollsBack(t *testing.T) {
	accounts := new(MockAccountStore)
	transactions := new(MockTransactionStore)
	withdrawals := new(MockWithdrawalClient)

	service := newTestService(t, accounts, transactions, withdrawals)

	from := &domain.Account{ID: "acc-1", UserID: "user-1", Balance: decimal.NewFromInt(1000)}
	to := &domain.Account{ID: "acc-2", UserID: "user-2", Balance: decimal.NewFromInt(1000)}

	transactions.On("LogTransaction", mock.Anything, mock.Anything).Return(nil)
	accounts.On("GetAccount", mock.Anything, "acc-1").Return(from, nil)
	accounts.On("GetAccount", mock.Anything, "acc-2").Return(to, nil)

	isAccount := func(id string) func(*domain.Account) bool {
		return func(acc *domain.Account) bool { return acc.ID == id }
	}

	// The debit leg persists, the credit leg fails, then both sides are
	// written back during compensation.
	accounts.On("UpdateAccount", mock.Anything, mock.MatchedBy(isAccount("acc-1"))).Return(nil).Once()
	accounts.On("UpdateAccount", mock.Anything, mock.MatchedBy(isAccount("acc-2"))).Return(errors.New("write refused")).Once()
	accounts.On("UpdateAccount", mock.Anything, mock.MatchedBy(isAccount("acc-1"))).Return(nil).Once()
	accounts.On("UpdateAccount", mock.Anything, mock.MatchedBy(isAccount("acc-2"))).Return(nil).Once()

	result := service.Transfer(context.Background(), "acc-1", "acc-2", decimal.NewFromInt(100))

	assert.Equal(t, domain.ResultFailure, result.Status)
	assert.Equal(t, domain.ErrorCodeUnknown, result.ErrorCode)

	// Compensation restored both balances.
	assert.True(t, decimal.NewFromInt(1000).Equal(from.Balance))
	assert.True(t, decimal.NewFromInt(1000).Equal(to.Balance))
	accounts.AssertExpectations(t)

	assert.Equal(t,
		[]domain.TransactionStatus{domain.TransactionProcessing, domain.TransactionFailure},
		ledgerStatuses(transactions.logged),
	)
}

func TestExternalTransfer_WithdrawalRequestFailureRollsBack(t *testing.T) {
	accounts := new(MockAccountStore)
	transactions := new(MockTransactionStore)
	withdrawals := new(MockWithdrawalClient)

	service := newTestService(t, accounts, transactions, withdrawals)

	from := &domain.Account{ID: "acc-1", UserID: "user-1", Balance: decimal.NewFromInt(1000)}

	transactions.On("LogTransaction", mock.Anything, mock.Anything).Return(nil)
	accounts.On("GetAccount", mock.Anything, "acc-1").Return(from, nil)
	accounts.On("UpdateAccount", mock.Anything, mock.Anything).Return(nil)
	withdrawals.On("RequestWithdrawal", mock.Anything, mock.Anything, "addr-1", mock.Anything).
		Return(errors.New("collaborator unreachable"))

	result := service.ExternalTransfer(context.Background(), "acc-1", "addr-1", decimal.NewFromInt(100))

	assert.Equal(t, domain.ResultFailure, result.Status)
	assert.Equal(t, domain.ErrorCodeUnknown, result.ErrorCode)
	assert.True(t, decimal.NewFromInt(1000).Equal(from.Balance))
	withdrawals.AssertNotCalled(t, "RequestState")
}

func TestExternalTransfer_PollErrorRollsBack(t *testing.T) {
	accounts := new(MockAccountStore)
	transactions := new(MockTransactionStore)
	withdrawals := new(MockWithdrawalClient)

	service := newTestService(t, accounts, transactions, withdrawals)

	from := &domain.Account{ID: "acc-1", UserID: "user-1", Balance: decimal.NewFromInt(1000)}

	transactions.On("LogTransaction", mock.Anything, mock.Anything).Return(nil)
	accounts.On("GetAccount", mock.Anything, "acc-1").Return(from, nil)
	accounts.On("UpdateAccount", mock.Anything, mock.Anything).Return(nil)
	withdrawals.On("RequestWithdrawal", mock.Anything, mock.Anything, "addr-1", mock.Anything).Return(nil)
	withdrawals.On("RequestState", mock.Anything, mock.Anything).
		Return(domain.WithdrawalPending, errors.New("poll failed"))

	result := service.ExternalTransfer(context.Background(), "acc-1", "addr-1", decimal.NewFromInt(100))

	assert.Equal(t, domain.ResultFailure, result.Status)
	assert.Equal(t, domain.ErrorCodeUnknown, result.ErrorCode)
	assert.True(t, decimal.NewFromInt(1000).Equal(from.Balance))
}
