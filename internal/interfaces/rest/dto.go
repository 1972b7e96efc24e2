package rest

import (
	"time"

	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/shopspring/decimal"
)

type PaymentDetailsRequest struct {
	CardNumber string `json:"card_number"`
	CVV        string `json:"cvv"`
	Expiry     string `json:"expiry"`
	Name       string `json:"name"`
}

func (p PaymentDetailsRequest) ToDomain() domain.PaymentDetails {
	return domain.PaymentDetails{
		CardNumber: p.CardNumber,
		CVV:        p.CVV,
		Expiry:     p.Expiry,
		Name:       p.Name,
	}
}

type ChargeRequest struct {
	UserID         string                `json:"user_id" validate:"required"`
	OrderID        *string               `json:"order_id"`
	Amount         decimal.Decimal       `json:"amount"`
	Currency       string                `json:"currency" validate:"omitempty,len=3"`
	PaymentDetails PaymentDetailsRequest `json:"payment_details"`
	Metadata       map[string]any        `json:"metadata"`
}

type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type TransactionResponse struct {
	ID              string         `json:"id"`
	TransactionID   string         `json:"transaction_id"`
	Type            string         `json:"type"`
	Gateway         string         `json:"gateway"`
	Amount          string         `json:"amount"`
	Currency        string         `json:"currency"`
	UserID          string         `json:"user_id"`
	OrderID         *string        `json:"order_id"`
	PaymentMethod   *string        `json:"payment_method"`
	Status          string         `json:"status"`
	GatewayResponse map[string]any `json:"gateway_response"`
	ErrorMessage    *string        `json:"error_message"`
	Metadata        map[string]any `json:"metadata"`
	ProcessedAt     *time.Time     `json:"processed_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
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
		GatewayResponse: t.GatewayResponse,
		ErrorMessage:    t.ErrorMessage,
		Metadata:        t.Metadata,
		ProcessedAt:     t.ProcessedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func ToTransactionResponses(txs []*domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, ToTransactionResponse(t))
	}
	return out
}
