package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/domain"
)

// PaymentService orchestrates charges and refunds against a gateway and is
// the only writer of transaction records.
type PaymentService struct {
	repo           application.TransactionRepository
	gateway        application.Gateway
	clock          application.Clock
	logger         *slog.Logger
	gatewayTimeout time.Duration

	refundLocksMu sync.Mutex
	refundLocks   map[string]*refundLock
}

// refundLock is held by one refund at a time; waiters counts the holder and
// everyone queued behind it so the entry can be dropped once idle.
type refundLock struct {
	mu      sync.Mutex
	waiters int
}

func NewPaymentService(
	repo application.TransactionRepository,
	gateway application.Gateway,
	clock application.Clock,
	logger *slog.Logger,
	gatewayTimeout time.Duration,
) *PaymentService {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &PaymentService{
		repo:           repo,
		gateway:        gateway,
		clock:          clock,
		logger:         logger,
		gatewayTimeout: gatewayTimeout,
		refundLocks:    make(map[string]*refundLock),
	}
}

// VerifyPaymentDetails asks the gateway whether details look chargeable.
// Nothing is recorded.
func (s *PaymentService) VerifyPaymentDetails(ctx context.Context, details domain.PaymentDetails) (*application.VerifyResult, error) {
	result, err := callGateway(ctx, s.gatewayTimeout, func(ctx context.Context) (*application.VerifyResult, error) {
		return s.gateway.Verify(ctx, details)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "payment details verification failed",
			"error", err,
			"category", application.CategorizeError(err),
		)
		return nil, application.NewGatewayUnavailableError(err)
	}
	return result, nil
}

func (s *PaymentService) GatewayInfo() application.GatewayInfo {
	return application.GatewayInfo{
		Name:                s.gateway.Name(),
		TestMode:            s.gateway.IsTestMode(),
		SupportedCurrencies: s.gateway.SupportedCurrencies(),
	}
}

func (s *PaymentService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if id == "" {
		return nil, domain.NewMissingRequiredFieldError("id")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *PaymentService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	txs, err := s.repo.List(ctx, filter.Normalize())
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return txs, nil
}

// lockRefunds serializes refunds of one original transaction within this process.
func (s *PaymentService) lockRefunds(originalID string) func() {
	s.refundLocksMu.Lock()
	l, ok := s.refundLocks[originalID]
	if !ok {
		l = &refundLock{}
		s.refundLocks[originalID] = l
	}
	l.waiters++
	s.refundLocksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.refundLocksMu.Lock()
		l.waiters--
		if l.waiters == 0 {
			delete(s.refundLocks, originalID)
		}
		s.refundLocksMu.Unlock()
	}
}
