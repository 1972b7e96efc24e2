package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

const testGatewayName = "Test Gateway"

// mockGateway is a testify mock of application.Gateway. Like mockery output,
// a return value may be a function of the request.
type mockGateway struct {
	mock.Mock
}

func newMockGateway(t *testing.T) *mockGateway {
	m := &mockGateway{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockGateway) Charge(ctx context.Context, req application.ChargeRequest) (*application.ChargeResult, error) {
	ret := m.Called(ctx, req)
	if fn, ok := ret.Get(0).(func(context.Context, application.ChargeRequest) (*application.ChargeResult, error)); ok {
		return fn(ctx, req)
	}
	res, _ := ret.Get(0).(*application.ChargeResult)
	return res, ret.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, req application.RefundRequest) (*application.RefundResult, error) {
	ret := m.Called(ctx, req)
	if fn, ok := ret.Get(0).(func(context.Context, application.RefundRequest) (*application.RefundResult, error)); ok {
		return fn(ctx, req)
	}
	res, _ := ret.Get(0).(*application.RefundResult)
	return res, ret.Error(1)
}

func (m *mockGateway) Verify(ctx context.Context, details domain.PaymentDetails) (*application.VerifyResult, error) {
	ret := m.Called(ctx, details)
	res, _ := ret.Get(0).(*application.VerifyResult)
	return res, ret.Error(1)
}

func (m *mockGateway) Name() string                  { return testGatewayName }
func (m *mockGateway) SupportedCurrencies() []string { return []string{"USD", "EUR", "GBP"} }
func (m *mockGateway) IsTestMode() bool              { return true }

// lastArgument returns argument i of the most recent call to method.
// Only read it once the calls under test have returned.
func (m *mockGateway) lastArgument(method string, i int) any {
	for j := len(m.Calls) - 1; j >= 0; j-- {
		if m.Calls[j].Method == method {
			return m.Calls[j].Arguments.Get(i)
		}
	}
	return nil
}

func (m *mockGateway) lastCharge() application.ChargeRequest {
	req, _ := m.lastArgument("Charge", 1).(application.ChargeRequest)
	return req
}

func (m *mockGateway) lastRefund() application.RefundRequest {
	req, _ := m.lastArgument("Refund", 1).(application.RefundRequest)
	return req
}

func approveCharge(_ context.Context, req application.ChargeRequest) (*application.ChargeResult, error) {
	return &application.ChargeResult{
		Success:       true,
		TransactionID: "ch_" + req.IdempotencyKey,
		Message:       "Charge approved",
		RawResponse:   map[string]any{"status": "succeeded"},
	}, nil
}

func approveRefund(_ context.Context, req application.RefundRequest) (*application.RefundResult, error) {
	return &application.RefundResult{
		Success:  true,
		RefundID: "re_" + req.IdempotencyKey,
		Message:  "Refund issued",
	}, nil
}

// failingRepository wraps a repository and fails selected operations.
type failingRepository struct {
	application.TransactionRepository
	failCreate bool
	failUpdate bool
}

var errStorageDown = errors.New("storage down")

func (r *failingRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	if r.failCreate {
		return errStorageDown
	}
	return r.TransactionRepository.Create(ctx, tx)
}

func (r *failingRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	if r.failUpdate {
		return errStorageDown
	}
	return r.TransactionRepository.Update(ctx, tx)
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
