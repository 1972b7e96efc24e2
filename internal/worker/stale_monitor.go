// Package worker runs background jobs alongside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/domain"
)

// StaleRepository is the slice of the transaction store the monitor reads.
type StaleRepository interface {
	FindStalePending(ctx context.Context, before time.Time, limit int) ([]*domain.Transaction, error)
}

// StaleMonitor reports pending transactions that never reached a terminal
// state, typically because the process died between the gateway call and
// the final write. It only reports: an operator has to reconcile these
// against the processor by hand.
type StaleMonitor struct {
	repo       StaleRepository
	clock      application.Clock
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	logger     *slog.Logger
}

func NewStaleMonitor(
	repo StaleRepository,
	clock application.Clock,
	interval time.Duration,
	staleAfter time.Duration,
	batchSize int,
	logger *slog.Logger,
) *StaleMonitor {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &StaleMonitor{
		repo:       repo,
		clock:      clock,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		logger:     logger,
	}
}

func (m *StaleMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("starting stale pending monitor",
		"interval", m.interval,
		"stale_after", m.staleAfter,
		"batch_size", m.batchSize,
	)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("stopping stale pending monitor")
			return
		case <-ticker.C:
			m.run(ctx)
		}
	}
}

// RunOnce executes a single scan and returns the stale records it reported.
func (m *StaleMonitor) RunOnce(ctx context.Context) ([]*domain.Transaction, error) {
	cutoff := m.clock.Now().Add(-m.staleAfter)

	stale, err := m.repo.FindStalePending(ctx, cutoff, m.batchSize)
	if err != nil {
		return nil, err
	}

	for _, tx := range stale {
		m.logger.WarnContext(ctx, "transaction stuck in pending",
			"id", tx.ID,
			"transaction_id", tx.TransactionID,
			"type", tx.Type,
			"gateway", tx.Gateway,
			"amount", tx.Amount.StringFixed(2),
			"currency", tx.Currency,
			"user_id", tx.UserID,
			"pending_for", m.clock.Now().Sub(tx.CreatedAt).Round(time.Second),
		)
	}
	return stale, nil
}

func (m *StaleMonitor) run(ctx context.Context) {
	stale, err := m.RunOnce(ctx)
	if err != nil {
		m.logger.Error("failed to fetch stale pending transactions", "error", err)
		return
	}
	if len(stale) > 0 {
		m.logger.Info("stale pending scan finished", "count", len(stale))
	}
}
