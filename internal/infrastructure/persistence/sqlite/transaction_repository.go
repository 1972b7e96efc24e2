package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/DanielPopoola/payment-engine/internal/infrastructure/persistence"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Fixed-width so that text comparison orders timestamps correctly.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `
	SELECT id, transaction_id, type, gateway, amount, currency, user_id, order_id,
	       payment_method, status, gateway_response, error_message, metadata,
	       processed_at, created_at, updated_at
	FROM transactions`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, transaction_id, type, gateway, amount, currency, user_id, order_id,
			payment_method, status, gateway_response, error_message, metadata,
			processed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	m, err := persistence.ToDBModel(tx)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
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
		nullableJSON(m.GatewayResponse),
		m.ErrorMessage,
		string(m.Metadata),
		formatNullableTime(m.ProcessedAt),
		formatTime(m.CreatedAt),
		formatTime(m.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDuplicateTransactionError(m.TransactionID)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET transaction_id = ?, status = ?, gateway_response = ?,
			error_message = ?, processed_at = ?, updated_at = ?
		WHERE id = ?
	`

	m, err := persistence.ToDBModel(tx)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query,
		m.TransactionID,
		m.Status,
		nullableJSON(m.GatewayResponse),
		m.ErrorMessage,
		formatNullableTime(m.ProcessedAt),
		formatTime(m.UpdatedAt),
		m.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDuplicateTransactionError(m.TransactionID)
		}
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NewTransactionNotFoundError(m.ID)
	}

	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	return scanTransaction(row, id)
}

func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE transaction_id = ?`, transactionID)
	return scanTransaction(row, transactionID)
}

func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	query, args := persistence.BuildListQuery(selectColumns, filter, persistence.QuestionPlaceholder)
	return r.query(ctx, query, args...)
}

func (r *TransactionRepository) FindStalePending(ctx context.Context, before time.Time, limit int) ([]*domain.Transaction, error) {
	query := selectColumns + `
		WHERE status = 'pending'
		  AND created_at < ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	return r.query(ctx, query, formatTime(before), limit)
}

func (r *TransactionRepository) MarkRefunded(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE transactions
		SET status = 'refunded', updated_at = ?
		WHERE id = ? AND status = 'completed' AND type = 'charge'
	`

	result, err := r.db.ExecContext(ctx, query, formatTime(at), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark transaction refunded: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *TransactionRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var results []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows, "")
		if err != nil {
			return nil, err
		}
		results = append(results, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner, lookup string) (*domain.Transaction, error) {
	var (
		m                    persistence.TransactionModel
		response             sql.NullString
		metadata             string
		processedAt          sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(
		&m.ID, &m.TransactionID, &m.Type, &m.Gateway, &m.Amount, &m.Currency, &m.UserID, &m.OrderID,
		&m.PaymentMethod, &m.Status, &response, &m.ErrorMessage, &metadata,
		&processedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewTransactionNotFoundError(lookup)
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if response.Valid {
		m.GatewayResponse = []byte(response.String)
	}
	m.Metadata = []byte(metadata)

	if m.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if m.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if processedAt.Valid {
		t, err := time.Parse(timeLayout, processedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse processed_at: %w", err)
		}
		m.ProcessedAt = &t
	}

	return persistence.ToDomainModel(&m)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}
