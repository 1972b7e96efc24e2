package application

import (
	"slices"
	"strings"

	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	Amount         decimal.Decimal
	Currency       string
	PaymentDetails domain.PaymentDetails
	Metadata       domain.Metadata
	// IdempotencyKey is the local record id; remote processors use it to
	// de-duplicate retried submissions.
	IdempotencyKey string
}

type ChargeResult struct {
	Success       bool
	TransactionID string
	Message       string
	RawResponse   map[string]any
}

// RefundRequest refunds a previously charged gateway transaction.
// A nil Amount means the full original amount.
type RefundRequest struct {
	TransactionID  string
	Amount         *decimal.Decimal
	IdempotencyKey string
}

type RefundResult struct {
	Success  bool
	RefundID string
	Message  string
}

type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type GatewayInfo struct {
	Name                string   `json:"name"`
	TestMode            bool     `json:"test_mode"`
	SupportedCurrencies []string `json:"supported_currencies"`
}

// SupportsCurrency reports whether g lists currency, ignoring case.
func SupportsCurrency(g Gateway, currency string) bool {
	return slices.ContainsFunc(g.SupportedCurrencies(), func(c string) bool {
		return strings.EqualFold(c, currency)
	})
}
