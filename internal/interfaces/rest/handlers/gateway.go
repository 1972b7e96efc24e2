package handlers

import (
	"net/http"

	"github.com/DanielPopoola/payment-engine/internal/interfaces/rest"
)

func (h *Handler) VerifyPaymentDetails(w http.ResponseWriter, r *http.Request) {
	var req rest.PaymentDetailsRequest
	if err := h.decodeBody(r, &req, false); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	result, err := h.service.VerifyPaymentDetails(r.Context(), req.ToDomain())
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteSuccess(w, http.StatusOK, result)
}

func (h *Handler) GatewayInfo(w http.ResponseWriter, r *http.Request) {
	rest.WriteSuccess(w, http.StatusOK, h.service.GatewayInfo())
}
