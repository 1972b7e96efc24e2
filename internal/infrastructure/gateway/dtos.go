package gateway

type cardPayload struct {
	Number string `json:"number"`
	CVV    string `json:"cvv"`
	Expiry string `json:"expiry"`
	Name   string `json:"name,omitempty"`
}

type ChargeRequest struct {
	Amount   string         `json:"amount"`
	Currency string         `json:"currency"`
	Card     cardPayload    `json:"card"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type ChargeResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type RefundRequest struct {
	TransactionID string  `json:"transaction_id"`
	Amount        *string `json:"amount,omitempty"`
}

type RefundResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type VerifyRequest struct {
	Card cardPayload `json:"card"`
}

type VerifyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}
