package payments

import (
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectGateway(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		expected Gateway
	}{
		{name: "small amount", amount: "5.00", expected: GatewayCheap},
		{name: "just under threshold", amount: "9.99", expected: GatewayCheap},
		{name: "exactly at threshold", amount: "10.00", expected: GatewayExpensive},
		{name: "just over threshold", amount: "10.01", expected: GatewayExpensive},
		{name: "large amount", amount: "199.99", expected: GatewayExpensive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, SelectGateway(amount))
		})
	}
}

func TestGateway_Process(t *testing.T) {
	t.Run("cheap gateway accepts amounts under threshold", func(t *testing.T) {
		amount := decimal.RequireFromString("9.99")
		receipt, err := GatewayCheap.Process(amount, []int64{1, 2})
		require.NoError(t, err)

		assert.True(t, receipt.Success)
		assert.Equal(t, GatewayCheap, receipt.Gateway)
		assert.True(t, amount.Equal(receipt.Amount))
		assert.Equal(t, "completed", receipt.Status)
		assert.Equal(t, []int64{1, 2}, receipt.SongIDs)
		assert.Equal(t, "Payment processed successfully via CheapPaymentGateway", receipt.Message)
		assert.False(t, receipt.PremiumFeatures)
	})

	t.Run("expensive gateway accepts amounts at threshold", func(t *testing.T) {
		amount := decimal.RequireFromString("10.00")
		receipt, err := GatewayExpensive.Process(amount, []int64{3})
		require.NoError(t, err)

		assert.True(t, receipt.Success)
		assert.Equal(t, GatewayExpensive, receipt.Gateway)
		assert.Equal(t, "completed", receipt.Status)
		assert.True(t, receipt.PremiumFeatures)
	})

	t.Run("cheap gateway rejects amounts at or over threshold", func(t *testing.T) {
		_, err := GatewayCheap.Process(decimal.RequireFromString("10.00"), []int64{1})
		assert.Error(t, err)
	})

	t.Run("expensive gateway rejects amounts under threshold", func(t *testing.T) {
		_, err := GatewayExpensive.Process(decimal.RequireFromString("9.99"), []int64{1})
		assert.Error(t, err)
	})

	t.Run("unknown gateway is rejected", func(t *testing.T) {
		_, err := Gateway("BogusGateway").Process(decimal.RequireFromString("5.00"), []int64{1})
		assert.Error(t, err)
	})
}

func TestGateway_TransactionID(t *testing.T) {
	t.Run("format carries prefix and amount in cents", func(t *testing.T) {
		receipt, err := GatewayCheap.Process(decimal.RequireFromString("4.99"), []int64{1})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(receipt.TransactionID, "CHEAP-"))
		parts := strings.Split(receipt.TransactionID, "-")
		cents, err := strconv.Atoi(parts[len(parts)-1])
		require.NoError(t, err)
		assert.Equal(t, 499, cents)

		receipt, err = GatewayExpensive.Process(decimal.RequireFromString("19.98"), []int64{1, 2})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(receipt.TransactionID, "EXP-"))
		assert.True(t, strings.HasSuffix(receipt.TransactionID, "-1998"))
	})

	t.Run("ids are unique per call", func(t *testing.T) {
		amount := decimal.RequireFromString("5.00")
		first, err := GatewayCheap.Process(amount, []int64{1})
		require.NoError(t, err)
		second, err := GatewayCheap.Process(amount, []int64{2})
		require.NoError(t, err)

		assert.NotEqual(t, first.TransactionID, second.TransactionID)
	})
}
