package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/config"
	"github.com/DanielPopoola/payment-engine/internal/domain"
)

const defaultHTTPGatewayName = "HTTP Payment Gateway"

// HTTPGateway talks to a remote JSON payment processor.
type HTTPGateway struct {
	baseURL    string
	name       string
	currencies []string
	testMode   bool
	httpClient *http.Client
}

func NewHTTPGateway(cfg config.GatewayConfig) *HTTPGateway {
	name := cfg.Name
	if name == "" {
		name = defaultHTTPGatewayName
	}

	currencies := make([]string, 0, len(cfg.SupportedCurrencies))
	for _, c := range cfg.SupportedCurrencies {
		currencies = append(currencies, strings.ToUpper(strings.TrimSpace(c)))
	}

	return &HTTPGateway{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		name:       name,
		currencies: currencies,
		testMode:   cfg.TestMode,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *HTTPGateway) Charge(ctx context.Context, req application.ChargeRequest) (*application.ChargeResult, error) {
	url := fmt.Sprintf("%s/v1/charges", c.baseURL)
	body := ChargeRequest{
		Amount:   req.Amount.StringFixed(2),
		Currency: req.Currency,
		Card:     toCardPayload(req.PaymentDetails),
		Metadata: req.Metadata,
	}

	resp, raw, err := sendRequest[ChargeRequest, ChargeResponse](c, ctx, http.MethodPost, url, &body, req.IdempotencyKey)
	if err != nil {
		if gwErr, ok := IsGatewayError(err); ok && gwErr.IsDecline() {
			return &application.ChargeResult{
				Success:     false,
				Message:     gwErr.Message,
				RawResponse: gwErr.Raw,
			}, nil
		}
		return nil, err
	}

	return &application.ChargeResult{
		Success:       isSucceeded(resp.Status),
		TransactionID: resp.ID,
		Message:       resp.Message,
		RawResponse:   raw,
	}, nil
}

func (c *HTTPGateway) Refund(ctx context.Context, req application.RefundRequest) (*application.RefundResult, error) {
	url := fmt.Sprintf("%s/v1/refunds", c.baseURL)
	body := RefundRequest{TransactionID: req.TransactionID}
	if req.Amount != nil {
		amount := req.Amount.StringFixed(2)
		body.Amount = &amount
	}

	resp, _, err := sendRequest[RefundRequest, RefundResponse](c, ctx, http.MethodPost, url, &body, req.IdempotencyKey)
	if err != nil {
		if gwErr, ok := IsGatewayError(err); ok && gwErr.IsDecline() {
			return &application.RefundResult{Success: false, Message: gwErr.Message}, nil
		}
		return nil, err
	}

	return &application.RefundResult{
		Success:  isSucceeded(resp.Status),
		RefundID: resp.ID,
		Message:  resp.Message,
	}, nil
}

func (c *HTTPGateway) Verify(ctx context.Context, details domain.PaymentDetails) (*application.VerifyResult, error) {
	url := fmt.Sprintf("%s/v1/verifications", c.baseURL)
	body := VerifyRequest{Card: toCardPayload(details)}

	resp, _, err := sendRequest[VerifyRequest, VerifyResponse](c, ctx, http.MethodPost, url, &body, "")
	if err != nil {
		if gwErr, ok := IsGatewayError(err); ok && gwErr.IsDecline() {
			return &application.VerifyResult{Valid: false, Message: gwErr.Message}, nil
		}
		return nil, err
	}

	return &application.VerifyResult{Valid: resp.Valid, Message: resp.Message}, nil
}

func (c *HTTPGateway) Name() string { return c.name }

func (c *HTTPGateway) SupportedCurrencies() []string {
	return append([]string(nil), c.currencies...)
}

func (c *HTTPGateway) IsTestMode() bool { return c.testMode }

func toCardPayload(d domain.PaymentDetails) cardPayload {
	return cardPayload{
		Number: d.CardNumber,
		CVV:    d.CVV,
		Expiry: d.Expiry,
		Name:   d.Name,
	}
}

func isSucceeded(status string) bool {
	switch strings.ToLower(status) {
	case "succeeded", "success", "completed", "approved":
		return true
	}
	return false
}

// sendRequest returns the typed response together with the decoded body as a
// generic map, which is what gets stored on the transaction record.
func sendRequest[Req any, Resp any](c *HTTPGateway, ctx context.Context, method, url string, reqBody *Req, idempotencyKey string) (*Resp, map[string]any, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading response: %w", err)
	}

	var raw map[string]any
	_ = json.Unmarshal(body, &raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp GatewayErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, nil, &GatewayError{
				Code:       "unexpected_response",
				Message:    strings.TrimSpace(string(body)),
				StatusCode: resp.StatusCode,
			}
		}
		return nil, nil, &GatewayError{
			Code:       errResp.Err,
			Message:    errResp.Message,
			StatusCode: resp.StatusCode,
			Raw:        raw,
		}
	}

	var gwResp Resp
	if err := json.Unmarshal(body, &gwResp); err != nil {
		return nil, nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &gwResp, raw, nil
}
