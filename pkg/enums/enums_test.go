package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionTypeSigns(t *testing.T) {
	assert.True(t, TransactionTypeUse.Consumes())
	assert.True(t, TransactionTypeWaste.Consumes())
	assert.False(t, TransactionTypeRestock.Consumes())
	assert.False(t, TransactionTypeReturn.Consumes())
	assert.False(t, TransactionTypeAdjust.Consumes())
}

func TestParseTransactionType(t *testing.T) {
	parsed, err := ParseTransactionType("restock")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeRestock, parsed)

	_, err = ParseTransactionType("steal")
	require.Error(t, err)
}

func TestStatusForStock(t *testing.T) {
	tests := []struct {
		current, minimum int
		want             ItemStatus
	}{
		{current: 0, minimum: 5, want: ItemStatusOutOfStock},
		{current: -1, minimum: 0, want: ItemStatusOutOfStock},
		{current: 3, minimum: 5, want: ItemStatusLowStock},
		{current: 5, minimum: 5, want: ItemStatusLowStock},
		{current: 6, minimum: 5, want: ItemStatusInStock},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForStock(tt.current, tt.minimum), "stock=%d min=%d", tt.current, tt.minimum)
	}
}

func TestWorkerRoleParsing(t *testing.T) {
	role, err := ParseWorkerRole("super_admin")
	require.NoError(t, err)
	assert.Equal(t, WorkerRoleSuperAdmin, role)
	assert.True(t, role.IsValid())

	_, err = ParseWorkerRole("owner")
	require.Error(t, err)
}

func TestTaskStatusTerminal(t *testing.T) {
	assert.True(t, TaskStatusCompleted.IsTerminal())
	assert.True(t, TaskStatusCancelled.IsTerminal())
	assert.False(t, TaskStatusPending.IsTerminal())
	assert.False(t, TaskStatusInProgress.IsTerminal())
}
