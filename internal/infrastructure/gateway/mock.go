package gateway

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/domain"
)

const (
	MockGatewayName = "Mock Payment Gateway"

	// Cards ending in this suffix are always declined by the mock.
	mockDeclineSuffix = "0000"
	mockIDLength      = 16
	mockIDAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var mockSupportedCurrencies = []string{"USD", "EUR", "GBP"}

// MockGateway is a deterministic in-process gateway for development and tests.
type MockGateway struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewMockGateway(logger *slog.Logger) *MockGateway {
	return &MockGateway{
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (g *MockGateway) Charge(ctx context.Context, req application.ChargeRequest) (*application.ChargeResult, error) {
	g.logger.InfoContext(ctx, "mock gateway charge",
		"amount", req.Amount.StringFixed(2),
		"currency", req.Currency,
		"metadata", req.Metadata,
	)

	if strings.HasSuffix(domain.NormalizeCardNumber(req.PaymentDetails.CardNumber), mockDeclineSuffix) {
		return &application.ChargeResult{
			Success: false,
			Message: "Payment declined (MOCK - card ending in 0000)",
			RawResponse: map[string]any{
				"gateway":    "mock",
				"error_code": "card_declined",
				"test_mode":  true,
			},
		}, nil
	}

	return &application.ChargeResult{
		Success:       true,
		TransactionID: "MOCK_" + randomID(),
		Message:       "Payment processed successfully (MOCK)",
		RawResponse: map[string]any{
			"gateway":   "mock",
			"test_mode": true,
			"timestamp": g.now().Format(time.RFC3339),
		},
	}, nil
}

func (g *MockGateway) Refund(ctx context.Context, req application.RefundRequest) (*application.RefundResult, error) {
	amount := "full"
	if req.Amount != nil {
		amount = req.Amount.StringFixed(2)
	}
	g.logger.InfoContext(ctx, "mock gateway refund",
		"transaction_id", req.TransactionID,
		"amount", amount,
	)

	return &application.RefundResult{
		Success:  true,
		RefundID: "REFUND_" + randomID(),
		Message:  "Refund successful (MOCK)",
	}, nil
}

func (g *MockGateway) Verify(_ context.Context, details domain.PaymentDetails) (*application.VerifyResult, error) {
	valid := len(domain.NormalizeCardNumber(details.CardNumber)) >= 13 &&
		len(details.CVV) >= 3 &&
		details.Expiry != ""

	if !valid {
		return &application.VerifyResult{Valid: false, Message: "Invalid card details (MOCK)"}, nil
	}
	return &application.VerifyResult{Valid: true, Message: "Card details valid (MOCK)"}, nil
}

func (g *MockGateway) Name() string { return MockGatewayName }

func (g *MockGateway) SupportedCurrencies() []string {
	return append([]string(nil), mockSupportedCurrencies...)
}

func (g *MockGateway) IsTestMode() bool { return true }

func randomID() string {
	b := make([]byte, mockIDLength)
	for i := range b {
		b[i] = mockIDAlphabet[rand.IntN(len(mockIDAlphabet))]
	}
	return string(b)
}
