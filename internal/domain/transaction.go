// Package domain encodes a payment transaction record and its lifecycle
package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the current state of a transaction in its lifecycle
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusRefunded  TransactionStatus = "refunded"
)

// TransactionType classifies what a transaction attempted
type TransactionType string

const (
	TypeCharge TransactionType = "charge"
	TypeRefund TransactionType = "refund"
	TypeVoid   TransactionType = "void"
)

// Transaction is one charge or refund attempt. Records are append-only:
// nothing in the engine deletes them.
type Transaction struct {
	ID            string
	TransactionID string
	Type          TransactionType
	Gateway       string

	Amount   decimal.Decimal
	Currency string
	UserID   string
	OrderID  *string

	PaymentMethod *string

	Status          TransactionStatus
	GatewayResponse map[string]any
	ErrorMessage    *string
	Metadata        Metadata

	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type NewTransactionParams struct {
	ID            string
	TransactionID string
	Type          TransactionType
	Gateway       string
	Amount        Money
	UserID        string
	OrderID       *string
	PaymentMethod *string
	Metadata      Metadata
	CreatedAt     time.Time
}

// NewTransaction builds a pending transaction.
func NewTransaction(p NewTransactionParams) (*Transaction, error) {
	if p.ID == "" {
		return nil, NewMissingRequiredFieldError("id")
	}
	if p.TransactionID == "" {
		return nil, NewMissingRequiredFieldError("transaction_id")
	}
	if p.UserID == "" {
		return nil, NewMissingRequiredFieldError("user_id")
	}
	if !p.Amount.Amount.IsPositive() {
		return nil, NewInvalidAmountError(p.Amount.Amount.String())
	}
	switch p.Type {
	case TypeCharge, TypeRefund, TypeVoid:
	default:
		return nil, NewMissingRequiredFieldError("type")
	}

	metadata := p.Metadata
	if metadata == nil {
		metadata = Metadata{}
	}

	return &Transaction{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		Type:          p.Type,
		Gateway:       p.Gateway,
		Amount:        p.Amount.Amount,
		Currency:      p.Amount.Currency,
		UserID:        p.UserID,
		OrderID:       p.OrderID,
		PaymentMethod: p.PaymentMethod,
		Status:        StatusPending,
		Metadata:      metadata,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.CreatedAt,
	}, nil
}

// Complete records a successful gateway outcome. A non-empty gatewayID
// replaces the local placeholder identifier.
func (t *Transaction) Complete(gatewayID string, response map[string]any, at time.Time) error {
	if err := t.transition(StatusCompleted); err != nil {
		return err
	}
	if gatewayID != "" {
		t.TransactionID = gatewayID
	}
	t.GatewayResponse = response
	t.ErrorMessage = nil
	t.ProcessedAt = &at
	t.UpdatedAt = at
	return nil
}

// Fail records a decline or an infrastructure failure.
func (t *Transaction) Fail(message string, gatewayID string, response map[string]any, at time.Time) error {
	if err := t.transition(StatusFailed); err != nil {
		return err
	}
	if message == "" {
		message = "transaction failed"
	}
	if gatewayID != "" {
		t.TransactionID = gatewayID
	}
	if response != nil {
		t.GatewayResponse = response
	}
	t.ErrorMessage = &message
	t.ProcessedAt = &at
	t.UpdatedAt = at
	return nil
}

// MarkRefunded moves a completed charge to refunded after a full refund.
func (t *Transaction) MarkRefunded(at time.Time) error {
	if t.Type != TypeCharge {
		return NewInvalidTransitionError(t.Status, StatusRefunded)
	}
	if err := t.transition(StatusRefunded); err != nil {
		return err
	}
	t.UpdatedAt = at
	return nil
}

// CanRefund reports whether a refund may be issued against this transaction.
func (t *Transaction) CanRefund() error {
	if t.Type != TypeCharge {
		return &DomainError{
			Code:    ErrCodeInvalidState,
			Message: "only charge transactions can be refunded",
		}
	}
	if t.Status != StatusCompleted {
		return NewInvalidStateError(t.Status, StatusCompleted)
	}
	return nil
}

func (t *Transaction) transition(target TransactionStatus) error {
	if err := t.canTransitionTo(target); err != nil {
		return err
	}
	t.Status = target
	return nil
}

func (t *Transaction) canTransitionTo(target TransactionStatus) error {
	switch t.Status {
	case StatusPending:
		return t.allow(target, StatusCompleted, StatusFailed)
	case StatusCompleted:
		return t.allow(target, StatusRefunded)
	}
	return NewInvalidTransitionError(t.Status, target)
}

func (t *Transaction) allow(target TransactionStatus, allowed ...TransactionStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(t.Status, target)
}

func (t *Transaction) IsSuccessful() bool { return t.Status == StatusCompleted }
func (t *Transaction) IsFailed() bool     { return t.Status == StatusFailed }
func (t *Transaction) IsPending() bool    { return t.Status == StatusPending }
func (t *Transaction) IsRefunded() bool   { return t.Status == StatusRefunded }
func (t *Transaction) IsCharge() bool     { return t.Type == TypeCharge }
func (t *Transaction) IsRefund() bool     { return t.Type == TypeRefund }

// IsTerminal reports whether no further automatic transition applies.
// A completed charge still counts: only a separate refund can move it.
func (t *Transaction) IsTerminal() bool {
	return t.Status != StatusPending
}
