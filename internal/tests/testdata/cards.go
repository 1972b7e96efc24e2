// Package testdata holds cards the fake processor in the integration tests
// reacts to.
package testdata

type TestCard struct {
	Number      string
	CVV         string
	Expiry      string
	Description string
}

func (c TestCard) Details() map[string]any {
	return map[string]any{
		"card_number": c.Number,
		"cvv":         c.CVV,
		"expiry":      c.Expiry,
	}
}

var (
	ValidCard = TestCard{
		Number:      "4111111111111111",
		CVV:         "123",
		Expiry:      "12/30",
		Description: "Happy path card",
	}

	DeclinedCard = TestCard{
		Number:      "5555555555550002",
		CVV:         "789",
		Expiry:      "09/30",
		Description: "Processor answers 402 insufficient funds",
	}

	FlakyCard = TestCard{
		Number:      "4000000000000077",
		CVV:         "456",
		Expiry:      "06/31",
		Description: "First attempt answers 503, the retry succeeds",
	}

	OutageCard = TestCard{
		Number:      "6011000000000500",
		CVV:         "321",
		Expiry:      "03/29",
		Description: "Processor answers 500 on every attempt",
	}
)
