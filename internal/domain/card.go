package domain

import (
	"strings"
)

type cardPrefixRule struct {
	brand    string
	prefixes []string
}

// Evaluated in order; the first matching rule wins.
var cardPrefixRules = []cardPrefixRule{
	{brand: "Visa", prefixes: []string{"4"}},
	{brand: "Mastercard", prefixes: []string{"51", "52", "53", "54", "55"}},
	{brand: "Amex", prefixes: []string{"34", "37"}},
	{brand: "Discover", prefixes: []string{"6011", "65"}},
}

// DetectCardType returns the card brand for a card number, or "Card" when no rule matches.
func DetectCardType(cardNumber string) string {
	cardNumber = NormalizeCardNumber(cardNumber)
	for _, rule := range cardPrefixRules {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(cardNumber, prefix) {
				return rule.brand
			}
		}
	}
	return "Card"
}

// MaskCardNumber derives the stored payment-method descriptor, e.g. "Visa ****1111".
// Only the brand and the last four digits survive; an empty number yields nil.
func MaskCardNumber(cardNumber string) *string {
	cardNumber = NormalizeCardNumber(cardNumber)
	if cardNumber == "" {
		return nil
	}

	last4 := cardNumber
	if len(cardNumber) > 4 {
		last4 = cardNumber[len(cardNumber)-4:]
	}

	descriptor := DetectCardType(cardNumber) + " ****" + last4
	return &descriptor
}

// NormalizeCardNumber trims the number and drops space and dash separators.
func NormalizeCardNumber(cardNumber string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(cardNumber))
}
