package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/config"
	"github.com/DanielPopoola/payment-engine/internal/domain"
)

// RetryGateway retries transient infrastructure failures of an inner gateway.
// Declines are results, not errors, so they are never retried.
type RetryGateway struct {
	inner      application.Gateway
	baseDelay  time.Duration
	maxRetries int
	logger     *slog.Logger
}

func NewRetryGateway(inner application.Gateway, cfg config.RetryConfig, logger *slog.Logger) *RetryGateway {
	maxRetries := int(cfg.MaxRetries)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryGateway{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

func (r *RetryGateway) Charge(ctx context.Context, req application.ChargeRequest) (*application.ChargeResult, error) {
	return retry(
		r,
		ctx,
		"charge",
		func(ctx context.Context) (*application.ChargeResult, error) {
			return r.inner.Charge(ctx, req)
		},
	)
}

func (r *RetryGateway) Refund(ctx context.Context, req application.RefundRequest) (*application.RefundResult, error) {
	return retry(
		r,
		ctx,
		"refund",
		func(ctx context.Context) (*application.RefundResult, error) {
			return r.inner.Refund(ctx, req)
		},
	)
}

func (r *RetryGateway) Verify(ctx context.Context, details domain.PaymentDetails) (*application.VerifyResult, error) {
	return retry(
		r,
		ctx,
		"verify",
		func(ctx context.Context) (*application.VerifyResult, error) {
			return r.inner.Verify(ctx, details)
		},
	)
}

func (r *RetryGateway) Name() string                  { return r.inner.Name() }
func (r *RetryGateway) SupportedCurrencies() []string { return r.inner.SupportedCurrencies() }
func (r *RetryGateway) IsTestMode() bool              { return r.inner.IsTestMode() }

func retry[T any](r *RetryGateway, ctx context.Context, op string, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			delay := r.backoff(attempt)
			r.logger.WarnContext(ctx, "gateway call failed, retrying",
				"operation", op,
				"attempt", attempt+1,
				"delay", delay,
				"error", err,
			)
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var retryable domain.Retryable
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	// Network failures and timeouts.
	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryGateway) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	if r.baseDelay <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int63n(int64(r.baseDelay)))

	return base + jitter
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
