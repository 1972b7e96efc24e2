package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// GatewayError is a non-2xx answer from a remote processor.
type GatewayError struct {
	Code       string
	Message    string
	StatusCode int
	Raw        map[string]any
}

type GatewayErrorResponse struct {
	Err           string `json:"error"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// IsDecline reports whether the processor refused the payment itself,
// as opposed to failing to process it.
func (e *GatewayError) IsDecline() bool {
	return e.StatusCode == http.StatusPaymentRequired || e.StatusCode == http.StatusUnprocessableEntity
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}
