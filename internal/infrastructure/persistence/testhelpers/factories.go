package testhelpers

import (
	"testing"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewPendingCharge builds an unsaved pending charge with unique identifiers.
func NewPendingCharge(t *testing.T, userID string, amount string, createdAt time.Time) *domain.Transaction {
	t.Helper()
	return newTransaction(t, domain.TypeCharge, "PENDING_", userID, amount, createdAt)
}

// NewPendingRefund builds an unsaved pending refund with unique identifiers.
func NewPendingRefund(t *testing.T, userID string, amount string, createdAt time.Time) *domain.Transaction {
	t.Helper()
	return newTransaction(t, domain.TypeRefund, "REFUND_PENDING_", userID, amount, createdAt)
}

// NewCompletedCharge builds an unsaved charge already completed by a gateway.
func NewCompletedCharge(t *testing.T, userID string, amount string, createdAt time.Time) *domain.Transaction {
	t.Helper()
	tx := NewPendingCharge(t, userID, amount, createdAt)
	require.NoError(t, tx.Complete("MOCK_"+uuid.NewString(), map[string]any{"gateway": "mock"}, createdAt))
	return tx
}

func newTransaction(t *testing.T, typ domain.TransactionType, prefix, userID, amount string, createdAt time.Time) *domain.Transaction {
	t.Helper()
	money, err := domain.NewMoney(decimal.RequireFromString(amount), "USD")
	require.NoError(t, err)

	orderID := "order-" + uuid.NewString()
	tx, err := domain.NewTransaction(domain.NewTransactionParams{
		ID:            uuid.NewString(),
		TransactionID: prefix + uuid.NewString(),
		Type:          typ,
		Gateway:       "Mock Payment Gateway",
		Amount:        money,
		UserID:        userID,
		OrderID:       &orderID,
		PaymentMethod: domain.MaskCardNumber("4111111111111111"),
		Metadata:      domain.Metadata{"source": "test"},
		CreatedAt:     createdAt.UTC().Truncate(time.Microsecond),
	})
	require.NoError(t, err)
	return tx
}
