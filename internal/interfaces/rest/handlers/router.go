package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/interfaces/rest/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, logger *slog.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/charges", h.ProcessPayment)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/transactions/{id}", h.GetTransaction)
		r.Post("/transactions/{id}/refunds", h.ProcessRefund)
		r.Post("/payment-methods/verify", h.VerifyPaymentDetails)
		r.Get("/gateway", h.GatewayInfo)
	})

	return r
}
