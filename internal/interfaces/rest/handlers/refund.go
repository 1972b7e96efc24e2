package handlers

import (
	"net/http"

	"github.com/DanielPopoola/payment-engine/internal/application/services"
	"github.com/DanielPopoola/payment-engine/internal/interfaces/rest"
	"github.com/go-chi/chi/v5"
)

// ProcessRefund refunds the charge named in the path. Omitting the amount
// refunds the full charge.
func (h *Handler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	var req rest.RefundRequest
	if err := h.decodeBody(r, &req, true); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	tx, err := h.service.RefundByID(r.Context(), services.RefundCommand{
		TransactionRecordID: chi.URLParam(r, "id"),
		Amount:              req.Amount,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteSuccess(w, http.StatusCreated, rest.ToTransactionResponse(tx))
}
