package application

import (
	"context"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/domain"
)

// Gateway is the port for a payment processor backend. Declines are reported
// through the result types; a returned error means the gateway could not be
// reached or answered unintelligibly.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
	Verify(ctx context.Context, details domain.PaymentDetails) (*VerifyResult, error)
	Name() string
	SupportedCurrencies() []string
	IsTestMode() bool
}

// TransactionRepository is the port for persistence. There is deliberately no
// delete: records are an audit trail.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	FindByID(ctx context.Context, id string) (*domain.Transaction, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	FindStalePending(ctx context.Context, before time.Time, limit int) ([]*domain.Transaction, error)
	// MarkRefunded moves a completed charge to refunded. It reports false,
	// without error, when the row was no longer a completed charge.
	MarkRefunded(ctx context.Context, id string, at time.Time) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
