package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionModel is the storage representation shared by the SQL adapters.
// Amounts travel as fixed-point strings and JSON columns as raw bytes.
type TransactionModel struct {
	ID              string
	TransactionID   string
	Type            string
	Gateway         string
	Amount          string
	Currency        string
	UserID          string
	OrderID         *string
	PaymentMethod   *string
	Status          string
	GatewayResponse []byte
	ErrorMessage    *string
	Metadata        []byte
	ProcessedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ToDBModel maps a domain transaction to its storage model.
func ToDBModel(t *domain.Transaction) (*TransactionModel, error) {
	metadata := t.Metadata
	if metadata == nil {
		metadata = domain.Metadata{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	var responseJSON []byte
	if t.GatewayResponse != nil {
		responseJSON, err = json.Marshal(t.GatewayResponse)
		if err != nil {
			return nil, fmt.Errorf("marshal gateway response: %w", err)
		}
	}

	return &TransactionModel{
		ID:              t.ID,
		TransactionID:   t.TransactionID,
		Type:            string(t.Type),
		Gateway:         t.Gateway,
		Amount:          t.Amount.StringFixed(2),
		Currency:        t.Currency,
		UserID:          t.UserID,
		OrderID:         t.OrderID,
		PaymentMethod:   t.PaymentMethod,
		Status:          string(t.Status),
		GatewayResponse: responseJSON,
		ErrorMessage:    t.ErrorMessage,
		Metadata:        metadataJSON,
		ProcessedAt:     t.ProcessedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}, nil
}

// ToDomainModel rebuilds a domain transaction from storage without replaying
// state transitions.
func ToDomainModel(m *TransactionModel) (*domain.Transaction, error) {
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", m.Amount, err)
	}

	metadata := domain.Metadata{}
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	var response map[string]any
	if len(m.GatewayResponse) > 0 {
		if err := json.Unmarshal(m.GatewayResponse, &response); err != nil {
			return nil, fmt.Errorf("unmarshal gateway response: %w", err)
		}
	}

	return &domain.Transaction{
		ID:              m.ID,
		TransactionID:   m.TransactionID,
		Type:            domain.TransactionType(m.Type),
		Gateway:         m.Gateway,
		Amount:          amount,
		Currency:        m.Currency,
		UserID:          m.UserID,
		OrderID:         m.OrderID,
		PaymentMethod:   m.PaymentMethod,
		Status:          domain.TransactionStatus(m.Status),
		GatewayResponse: response,
		ErrorMessage:    m.ErrorMessage,
		Metadata:        metadata,
		ProcessedAt:     m.ProcessedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}
