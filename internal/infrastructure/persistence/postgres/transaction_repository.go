package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/DanielPopoola/payment-engine/internal/infrastructure/persistence"
	"github.com/jackc/pgx/v5"
)

const selectColumns = `
	SELECT id, transaction_id, type, gateway, amount::text, currency, user_id, order_id,
	       payment_method, status, gateway_response, error_message, metadata,
	       processed_at, created_at, updated_at
	FROM transactions`

type TransactionRepository struct {
	q persistence.Executor
}

func NewTransactionRepository(db *persistence.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// WithExecutor returns a repository bound to q, typically a pgx.Tx.
func (r *TransactionRepository) WithExecutor(q persistence.Executor) *TransactionRepository {
	return &TransactionRepository{q: q}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, transaction_id, type, gateway, amount, currency, user_id, order_id,
			payment_method, status, gateway_response, error_message, metadata,
			processed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	m, err := persistence.ToDBModel(tx)
	if err != nil {
		return err
	}

	_, err = r.q.Exec(ctx, query,
		m.ID,
		m.TransactionID,
		m.Type,
		m.Gateway,
		m.Amount,
		m.Currency,
		m.UserID,
		m.OrderID,
		m.PaymentMethod,
		m.Status,
		m.GatewayResponse,
		m.ErrorMessage,
		m.Metadata,
		m.ProcessedAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return domain.NewDuplicateTransactionError(m.TransactionID)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// Update persists the mutable part of a transaction.
func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET transaction_id = $1, status = $2, gateway_response = $3,
			error_message = $4, processed_at = $5, updated_at = $6
		WHERE id = $7
	`

	m, err := persistence.ToDBModel(tx)
	if err != nil {
		return err
	}

	result, err := r.q.Exec(ctx, query,
		m.TransactionID,
		m.Status,
		m.GatewayResponse,
		m.ErrorMessage,
		m.ProcessedAt,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return domain.NewDuplicateTransactionError(m.TransactionID)
		}
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewTransactionNotFoundError(m.ID)
	}

	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.q.QueryRow(ctx, selectColumns+` WHERE id = $1`, id)
	return scanTransaction(row, id)
}

func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	row := r.q.QueryRow(ctx, selectColumns+` WHERE transaction_id = $1`, transactionID)
	return scanTransaction(row, transactionID)
}

func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	query, args := persistence.BuildListQuery(selectColumns, filter, persistence.DollarPlaceholder)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	results, err := pgx.CollectRows(rows, collectTransaction)
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return results, nil
}

// FindStalePending finds pending transactions created before the cutoff, oldest first.
func (r *TransactionRepository) FindStalePending(ctx context.Context, before time.Time, limit int) ([]*domain.Transaction, error) {
	query := selectColumns + `
		WHERE status = 'pending'
		  AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale pending transactions: %w", err)
	}

	results, err := pgx.CollectRows(rows, collectTransaction)
	if err != nil {
		return nil, fmt.Errorf("scan stale pending transactions: %w", err)
	}
	return results, nil
}

// MarkRefunded is a compare-and-swap: only a completed charge row is moved.
func (r *TransactionRepository) MarkRefunded(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE transactions
		SET status = 'refunded', updated_at = $2
		WHERE id = $1 AND status = 'completed' AND type = 'charge'
	`

	result, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark transaction refunded: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func scanInto(row pgx.Row, m *persistence.TransactionModel) error {
	return row.Scan(
		&m.ID, &m.TransactionID, &m.Type, &m.Gateway, &m.Amount, &m.Currency, &m.UserID, &m.OrderID,
		&m.PaymentMethod, &m.Status, &m.GatewayResponse, &m.ErrorMessage, &m.Metadata,
		&m.ProcessedAt, &m.CreatedAt, &m.UpdatedAt,
	)
}

// scanTransaction converts a database row into a domain Transaction.
// Returns a TRANSACTION_NOT_FOUND error if the row doesn't exist.
func scanTransaction(row pgx.Row, lookup string) (*domain.Transaction, error) {
	var m persistence.TransactionModel
	if err := scanInto(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewTransactionNotFoundError(lookup)
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return persistence.ToDomainModel(&m)
}

func collectTransaction(row pgx.CollectableRow) (*domain.Transaction, error) {
	var m persistence.TransactionModel
	if err := scanInto(row, &m); err != nil {
		return nil, err
	}
	return persistence.ToDomainModel(&m)
}
