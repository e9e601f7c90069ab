package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func TestValidateTransition_LegalPairs(t *testing.T) {
	t.Parallel()

	legal := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusProcessing},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusProcessing, OrderStatusCancelled},
	}

	for _, tt := range legal {
		require.NoError(t, ValidateTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestValidateTransition_RejectsEverythingElse(t *testing.T) {
	t.Parallel()

	legal := map[[2]OrderStatus]bool{
		{OrderStatusPending, OrderStatusProcessing}:   true,
		{OrderStatusProcessing, OrderStatusShipped}:   true,
		{OrderStatusShipped, OrderStatusDelivered}:    true,
		{OrderStatusPending, OrderStatusCancelled}:    true,
		{OrderStatusProcessing, OrderStatusCancelled}: true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if legal[[2]OrderStatus{from, to}] {
				continue
			}
			err := ValidateTransition(from, to)
			require.Error(t, err, "%s -> %s must be rejected", from, to)

			var tErr *TransitionError
			require.ErrorAs(t, err, &tErr)
			assert.Equal(t, from, tErr.From)
			assert.Equal(t, to, tErr.To)
			assert.NotEmpty(t, tErr.Reason)
		}
	}
}

func TestValidateTransition_UnknownStatus(t *testing.T) {
	t.Parallel()

	require.Error(t, ValidateTransition(OrderStatus("NEW"), OrderStatusPending))
	require.Error(t, ValidateTransition(OrderStatusPending, OrderStatus("ARCHIVED")))
}

func TestCancellable(t *testing.T) {
	t.Parallel()

	assert.True(t, OrderStatusPending.Cancellable())
	assert.True(t, OrderStatusProcessing.Cancellable())
	assert.False(t, OrderStatusShipped.Cancellable())
	assert.False(t, OrderStatusDelivered.Cancellable())
	assert.False(t, OrderStatusCancelled.Cancellable())
}
