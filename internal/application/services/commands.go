package services

import (
	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// ChargeCommand asks for money to be taken from a payment instrument.
// An empty Currency falls back to Metadata["currency"] and then to USD.
type ChargeCommand struct {
	UserID         string
	OrderID        *string
	Amount         decimal.Decimal
	Currency       string
	PaymentDetails domain.PaymentDetails
	Metadata       domain.Metadata
}

func (c ChargeCommand) currency() string {
	if c.Currency != "" {
		return c.Currency
	}
	if v, ok := c.Metadata["currency"].(string); ok {
		return v
	}
	return ""
}

type RefundCommand struct {
	TransactionRecordID string
	Amount              *decimal.Decimal
}
