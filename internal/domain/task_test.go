package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewInternalTask(t *testing.T) {
	task := NewInternalTask("acc-1", "acc-2", decimal.NewFromInt(100))

	assert.Equal(t, KindInternal, task.Kind)
	assert.Equal(t, "acc-1", task.FromAccountID)
	assert.Equal(t, "acc-2", task.ToAccountID)
	assert.Empty(t, task.ExternalAddress)
	assert.True(t, decimal.NewFromInt(100).Equal(task.Amount))
	assert.NotEmpty(t, task.ID)
}

func TestNewExternalTask(t *testing.T) {
	task := NewExternalTask("acc-1", "addr-1", decimal.NewFromInt(50))

	assert.Equal(t, KindExternal, task.Kind)
	assert.Equal(t, "acc-1", task.FromAccountID)
	assert.Equal(t, "addr-1", task.ExternalAddress)
	assert.Empty(t, task.ToAccountID)
	assert.NotEmpty(t, task.ID)
}

func TestNewTask_IDsAreUnique(t *testing.T) {
	// Two tasks built from identical arguments must still be distinct.
	a := NewInternalTask("acc-1", "acc-2", decimal.NewFromInt(100))
	b := NewInternalTask("acc-1", "acc-2", decimal.NewFromInt(100))

	assert.NotEqual(t, a.ID, b.ID)
}

func TestInitialProgress(t *testing.T) {
	task := NewInternalTask("acc-1", "acc-2", decimal.NewFromInt(10))
	progress := task.InitialProgress()

	assert.Equal(t, task.ID, progress.TransferID)
	assert.Equal(t, TransferInitiated, progress.Status)
}
