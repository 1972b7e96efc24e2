// Package handlers exposes the payment engine over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/application/services"
	"github.com/DanielPopoola/payment-engine/internal/interfaces/rest"
	"github.com/go-playground/validator"
)

type Handler struct {
	service  *services.PaymentService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(service *services.PaymentService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		logger:   logger,
		validate: validator.New(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rest.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody reads a JSON body into dst and validates it. An empty body is
// accepted only when allowEmpty is set.
func (h *Handler) decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return application.NewInvalidInputError(err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return application.NewInvalidInputError(err)
	}
	return nil
}
