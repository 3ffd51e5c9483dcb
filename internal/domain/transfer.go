package domain

// TransferStatus represents the externally observable lifecycle state of a
// transfer task
type TransferStatus string

const (
	TransferInitiated  TransferStatus = "INITIATED"
	TransferProcessing TransferStatus = "PROCESSING"
	TransferCompleted  TransferStatus = "COMPLETED"
	TransferFailed     TransferStatus = "FAILED"
	// TransferUnknown is the default status synthesized for an unrecognized
	// transfer ID. It is not an error.
	TransferUnknown TransferStatus = "UNKNOWN"
)

// TransferProgress is the progress record for one transfer task. A record is
// created exactly once per task and only moves forward along
// INITIATED -> PROCESSING -> COMPLETED|FAILED.
type TransferProgress struct {
	TransferID string
	Status     TransferStatus
}

// ResultStatus is the terminal outcome of a transfer request
type ResultStatus string

const (
	ResultSuccess ResultStatus = "SUCCESS"
	ResultFailure ResultStatus = "FAILURE"
)

// ErrorCode classifies a failed transfer. Present only on failure results.
type ErrorCode string

const (
	ErrorCodeInsufficientFunds      ErrorCode = "INSUFFICIENT_FUNDS"
	ErrorCodeInvalidAccount         ErrorCode = "INVALID_ACCOUNT"
	ErrorCodeTimeout                ErrorCode = "TIMEOUT"
	ErrorCodeExternalTransferFailed ErrorCode = "EXTERNAL_TRANSFER_FAILED"
	// ErrorCodeQueueUnavailable is an admission-layer rejection (queue stopped
	// or saturated), distinct from the business errors above.
	ErrorCodeQueueUnavailable ErrorCode = "QUEUE_UNAVAILABLE"
	ErrorCodeUnknown          ErrorCode = "UNKNOWN"
)

// TransferResult is the structured outcome returned for every submitted
// transfer. Domain validation failures travel as results, never as Go errors.
type TransferResult struct {
	Status    ResultStatus
	Message   string
	TaskID    string
	ErrorCode ErrorCode
}

// Success builds a successful result for the given task
func Success(taskID string) TransferResult {
	return TransferResult{
		Status:  ResultSuccess,
		Message: "Transfer successful",
		TaskID:  taskID,
	}
}

// Failure builds a failed result carrying the error classification
func Failure(message, taskID string, code ErrorCode) TransferResult {
	return TransferResult{
		Status:    ResultFailure,
		Message:   message,
		TaskID:    taskID,
		ErrorCode: code,
	}
}
