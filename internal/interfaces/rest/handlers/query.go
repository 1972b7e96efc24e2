package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/DanielPopoola/payment-engine/internal/interfaces/rest"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteSuccess(w, http.StatusOK, rest.ToTransactionResponse(tx))
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}

	txs, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteSuccess(w, http.StatusOK, rest.ToTransactionResponses(txs))
}

func parseFilter(q url.Values) (domain.TransactionFilter, error) {
	filter := domain.TransactionFilter{
		UserID:  q.Get("user_id"),
		OrderID: q.Get("order_id"),
		Status:  domain.TransactionStatus(q.Get("status")),
		Type:    domain.TransactionType(q.Get("type")),
		Gateway: q.Get("gateway"),
	}

	switch filter.Status {
	case "", domain.StatusPending, domain.StatusCompleted, domain.StatusFailed, domain.StatusRefunded:
	default:
		return filter, fmt.Errorf("unknown status %q", filter.Status)
	}
	switch filter.Type {
	case "", domain.TypeCharge, domain.TypeRefund, domain.TypeVoid:
	default:
		return filter, fmt.Errorf("unknown type %q", filter.Type)
	}

	var err error
	if filter.Limit, err = parseIntDefault(q.Get("limit"), 0); err != nil {
		return filter, fmt.Errorf("limit: %w", err)
	}
	if filter.Offset, err = parseIntDefault(q.Get("offset"), 0); err != nil {
		return filter, fmt.Errorf("offset: %w", err)
	}
	return filter, nil
}

func parseIntDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}
