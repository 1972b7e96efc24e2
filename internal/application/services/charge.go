package services

import (
	"context"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/google/uuid"
)

const chargePlaceholderPrefix = "PENDING_"

// ProcessPayment charges the payment instrument in cmd and returns the
// resulting record. Declines and gateway failures are reported through the
// record's status, not through the error; an error means the request was
// invalid or the record could not be persisted.
//
// Nothing is recorded and the gateway is not called when user_id is missing
// (MISSING_REQUIRED_FIELD) or the amount is not positive (INVALID_AMOUNT).
// The same holds for a malformed currency code (INVALID_CURRENCY) and for a
// currency the gateway does not support (UNSUPPORTED_CURRENCY).
func (s *PaymentService) ProcessPayment(ctx context.Context, cmd ChargeCommand) (*domain.Transaction, error) {
	if cmd.UserID == "" {
		return nil, domain.NewMissingRequiredFieldError("user_id")
	}

	money, err := domain.NewMoney(cmd.Amount, cmd.currency())
	if err != nil {
		return nil, err
	}

	if !application.SupportsCurrency(s.gateway, money.Currency) {
		return nil, domain.NewUnsupportedCurrencyError(money.Currency, s.gateway.Name())
	}

	recordID := uuid.New().String()
	metadata := cmd.Metadata.Merge(domain.Metadata{
		"user_id":               cmd.UserID,
		"transaction_record_id": recordID,
	})

	tx, err := domain.NewTransaction(domain.NewTransactionParams{
		ID:            recordID,
		TransactionID: chargePlaceholderPrefix + uuid.New().String(),
		Type:          domain.TypeCharge,
		Gateway:       s.gateway.Name(),
		Amount:        money,
		UserID:        cmd.UserID,
		OrderID:       cmd.OrderID,
		PaymentMethod: domain.MaskCardNumber(cmd.PaymentDetails.CardNumber),
		Metadata:      metadata,
		CreatedAt:     s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, application.NewInternalError(err)
	}

	req := application.ChargeRequest{
		Amount:         money.Amount,
		Currency:       money.Currency,
		PaymentDetails: cmd.PaymentDetails,
		Metadata:       metadata,
		IdempotencyKey: recordID,
	}

	result, gwErr := callGateway(ctx, s.gatewayTimeout, func(ctx context.Context) (*application.ChargeResult, error) {
		return s.gateway.Charge(ctx, req)
	})

	at := s.clock.Now()
	switch {
	case gwErr != nil:
		s.logger.ErrorContext(ctx, "payment processing failed",
			"transaction_record_id", tx.ID,
			"user_id", tx.UserID,
			"error", gwErr,
			"category", application.CategorizeError(gwErr),
		)
		err = tx.Fail(gwErr.Error(), "", nil, at)

	case result.Success:
		err = tx.Complete(result.TransactionID, rawResponse(result.RawResponse), at)
		if err == nil {
			s.logger.InfoContext(ctx, "payment processed successfully",
				"transaction_id", tx.TransactionID,
				"amount", tx.Amount.StringFixed(2),
				"currency", tx.Currency,
				"user_id", tx.UserID,
			)
		}

	default:
		message := result.Message
		if message == "" {
			message = "Payment declined"
		}
		err = tx.Fail(message, result.TransactionID, rawResponse(result.RawResponse), at)
		s.logger.WarnContext(ctx, "payment declined",
			"transaction_id", tx.TransactionID,
			"error", message,
			"user_id", tx.UserID,
		)
	}
	if err != nil {
		return tx, application.NewInternalError(err)
	}

	// The gateway already acted; the outcome must be recorded even if the
	// caller has gone away.
	if err := s.repo.Update(context.WithoutCancel(ctx), tx); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist payment outcome",
			"transaction_record_id", tx.ID,
			"status", tx.Status,
			"error", err,
		)
		return tx, application.NewInternalError(err)
	}

	return tx, nil
}

func rawResponse(raw map[string]any) map[string]any {
	if raw == nil {
		return map[string]any{}
	}
	return raw
}
