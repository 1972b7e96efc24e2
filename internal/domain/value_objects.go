package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "USD"

// Money is a fixed-point amount with two fractional digits.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if !amount.IsPositive() {
		return Money{}, NewInvalidAmountError(amount.String())
	}
	currency, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: amount.Round(2), Currency: currency}, nil
}

// NormalizeCurrency upper-cases a currency code, defaulting to USD when empty.
func NormalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return DefaultCurrency, nil
	}
	if len(currency) != 3 {
		return "", NewInvalidCurrencyError(currency)
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return "", NewInvalidCurrencyError(currency)
		}
	}
	return currency, nil
}

// PaymentDetails is the raw payment instrument supplied with a charge.
// It is passed to the gateway and never persisted.
type PaymentDetails struct {
	CardNumber string
	CVV        string
	Expiry     string
	Name       string
}

// Metadata is a free-form bag of JSON-serializable values.
type Metadata map[string]any

// Merge returns a copy of m with extra applied on top.
func (m Metadata) Merge(extra Metadata) Metadata {
	out := make(Metadata, len(m)+len(extra))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
