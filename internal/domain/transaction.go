package domain

import (
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the outcome recorded for a ledger entry
type TransactionStatus string

const (
	TransactionProcessing TransactionStatus = "PROCESSING"
	TransactionSuccess    TransactionStatus = "SUCCESS"
	TransactionFailure    TransactionStatus = "FAILURE"
)

// TransferKind tags a transfer as internal (account-to-account) or external
// (account-to-external-address)
type TransferKind string

const (
	KindInternal TransferKind = "INTERNAL"
	KindExternal TransferKind = "EXTERNAL"
)

// Transaction is an append-only ledger entry. Entries are never mutated after
// being logged; a status transition produces a new entry for the same
// transaction ID.
//
// PreviousTransactionID is reserved for a hash-chained audit trail. It is
// never populated today and must not be given chaining semantics.
type Transaction struct {
	TransactionID         string
	FromRef               string
	ToRef                 string
	Amount                decimal.Decimal
	Kind                  TransferKind
	Status                TransactionStatus
	PreviousTransactionID *string
}
