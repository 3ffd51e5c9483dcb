package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccess(t *testing.T) {
	result := Success("task-1")

	assert.Equal(t, ResultSuccess, result.Status)
	assert.Equal(t, "Transfer successful", result.Message)
	assert.Equal(t, "task-1", result.TaskID)
	assert.Empty(t, result.ErrorCode)
}

func TestFailure(t *testing.T) {
	result := Failure("Insufficient funds", "task-2", ErrorCodeInsufficientFunds)

	assert.Equal(t, ResultFailure, result.Status)
	assert.Equal(t, "Insufficient funds", result.Message)
	assert.Equal(t, "task-2", result.TaskID)
	assert.Equal(t, ErrorCodeInsufficientFunds, result.ErrorCode)
}

func TestAccountValidate(t *testing.T) {
	acc := &Account{ID: "acc-1", UserID: "user-1"}
	assert.NoError(t, acc.Validate())

	missingID := &Account{UserID: "user-1"}
	assert.Error(t, missingID.Validate())

	missingUser := &Account{ID: "acc-1"}
	assert.Error(t, missingUser.Validate())
}
