package handlers

import (
	"fmt"
	"net/http"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/application/services"
	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/DanielPopoola/payment-engine/internal/interfaces/rest"
)

// ProcessPayment answers 201 for every charge that reached a terminal state;
// a decline is reported through the record's status.
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req rest.ChargeRequest
	if err := h.decodeBody(r, &req, false); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	if err := h.validate.Var(req.PaymentDetails.CardNumber, "required"); err != nil {
		rest.WriteError(w, application.NewInvalidInputError(fmt.Errorf("payment_details.card_number: %w", err)), h.logger)
		return
	}

	tx, err := h.service.ProcessPayment(r.Context(), services.ChargeCommand{
		UserID:         req.UserID,
		OrderID:        req.OrderID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		PaymentDetails: req.PaymentDetails.ToDomain(),
		Metadata:       domain.Metadata(req.Metadata),
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteSuccess(w, http.StatusCreated, rest.ToTransactionResponse(tx))
}
