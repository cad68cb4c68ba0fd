// Package payments implements the toy payment gateways used by the song
// purchase flow. Purchases under $10 go through the cheap gateway, purchases
// of $10 and over through the expensive one. Neither talks to a real
// processor; every accepted payment is fabricated as completed.
package payments

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway identifies one of the two payment processors.
type Gateway string

const (
	GatewayCheap     Gateway = "CheapPaymentGateway"
	GatewayExpensive Gateway = "ExpensivePaymentGateway"
)

// Threshold is the boundary between the two gateways. A total equal to the
// threshold is routed to the expensive gateway.
var Threshold = decimal.NewFromInt(10)

// Receipt is the result of a processed payment.
type Receipt struct {
	Success         bool            `json:"success"`
	Gateway         Gateway         `json:"gateway"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionID   string          `json:"transaction_id"`
	Status          string          `json:"status"`
	SongIDs         []int64         `json:"song_ids"`
	Message         string          `json:"message"`
	PremiumFeatures bool            `json:"premium_features,omitempty"`
}

// SelectGateway picks the gateway for the given total amount.
func SelectGateway(amount decimal.Decimal) Gateway {
	if amount.GreaterThanOrEqual(Threshold) {
		return GatewayExpensive
	}
	return GatewayCheap
}

// Process charges the given amount for the given songs and returns the
// receipt. It fails when the amount falls outside the gateway's band, which
// only happens if a caller bypasses SelectGateway.
func (g Gateway) Process(amount decimal.Decimal, songIDs []int64) (*Receipt, error) {
	switch g {
	case GatewayCheap:
		if amount.GreaterThanOrEqual(Threshold) {
			return nil, errors.Newf("%s can only process amounts under $10, got %s", g, amount)
		}
	case GatewayExpensive:
		if amount.LessThan(Threshold) {
			return nil, errors.Newf("%s should be used for amounts $10 or over, got %s", g, amount)
		}
	default:
		return nil, errors.Newf("unknown payment gateway %q", string(g))
	}

	return &Receipt{
		Success:         true,
		Gateway:         g,
		Amount:          amount,
		TransactionID:   g.transactionID(amount),
		Status:          "completed",
		SongIDs:         songIDs,
		Message:         fmt.Sprintf("Payment processed successfully via %s", g),
		PremiumFeatures: g == GatewayExpensive,
	}, nil
}

// transactionID builds a synthetic id: prefix, opaque unique suffix, amount
// in integer cents.
func (g Gateway) transactionID(amount decimal.Decimal) string {
	prefix := "CHEAP"
	if g == GatewayExpensive {
		prefix = "EXP"
	}
	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	return fmt.Sprintf("%s-%s-%d", prefix, uuid.NewString(), cents)
}
