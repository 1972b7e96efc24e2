package services

import (
	"context"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const refundPlaceholderPrefix = "REFUND_PENDING_"

// RefundByID loads the original transaction and refunds it.
func (s *PaymentService) RefundByID(ctx context.Context, cmd RefundCommand) (*domain.Transaction, error) {
	original, err := s.GetTransaction(ctx, cmd.TransactionRecordID)
	if err != nil {
		return nil, err
	}
	return s.ProcessRefund(ctx, original, cmd.Amount)
}

// ProcessRefund refunds amount of original, or all of it when amount is nil,
// and returns the new refund record. A successful full refund moves the
// original to refunded; a partial refund leaves it completed.
func (s *PaymentService) ProcessRefund(ctx context.Context, original *domain.Transaction, amount *decimal.Decimal) (*domain.Transaction, error) {
	if original == nil {
		return nil, domain.NewMissingRequiredFieldError("original transaction")
	}

	unlock := s.lockRefunds(original.ID)
	defer unlock()

	// The caller's copy may be stale; decide on the stored state.
	current, err := s.repo.FindByID(ctx, original.ID)
	if err != nil {
		return nil, err
	}
	if err := current.CanRefund(); err != nil {
		return nil, err
	}

	refundAmount := current.Amount
	full := true
	refundAmountLabel := "full"
	if amount != nil {
		requested := amount.Round(2)
		if !requested.IsPositive() {
			return nil, domain.NewInvalidAmountError(amount.String())
		}
		if requested.GreaterThan(current.Amount) {
			return nil, domain.NewRefundExceedsOriginalError(requested.StringFixed(2), current.Amount.StringFixed(2))
		}
		refundAmount = requested
		full = requested.Equal(current.Amount)
		refundAmountLabel = requested.StringFixed(2)
	}

	refundType := "partial"
	if full {
		refundType = "full"
	}

	recordID := uuid.New().String()
	refund, err := domain.NewTransaction(domain.NewTransactionParams{
		ID:            recordID,
		TransactionID: refundPlaceholderPrefix + uuid.New().String(),
		Type:          domain.TypeRefund,
		Gateway:       s.gateway.Name(),
		Amount:        domain.Money{Amount: refundAmount, Currency: current.Currency},
		UserID:        current.UserID,
		OrderID:       current.OrderID,
		Metadata: domain.Metadata{
			"original_transaction_id": current.TransactionID,
			"original_record_id":      current.ID,
			"refund_type":             refundType,
			"refund_amount":           refundAmountLabel,
		},
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, refund); err != nil {
		return nil, application.NewInternalError(err)
	}

	req := application.RefundRequest{
		TransactionID:  current.TransactionID,
		Amount:         amount,
		IdempotencyKey: recordID,
	}

	result, gwErr := callGateway(ctx, s.gatewayTimeout, func(ctx context.Context) (*application.RefundResult, error) {
		return s.gateway.Refund(ctx, req)
	})

	at := s.clock.Now()
	if gwErr != nil {
		s.logger.ErrorContext(ctx, "refund processing failed",
			"original_transaction_id", current.TransactionID,
			"error", gwErr,
			"category", application.CategorizeError(gwErr),
		)
		err = refund.Fail(gwErr.Error(), "", nil, at)
	} else {
		response := map[string]any{
			"success":   result.Success,
			"refund_id": result.RefundID,
			"message":   result.Message,
		}
		if result.Success {
			err = refund.Complete(result.RefundID, response, at)
		} else {
			message := result.Message
			if message == "" {
				message = "Refund declined"
			}
			err = refund.Fail(message, result.RefundID, response, at)
		}
	}
	if err != nil {
		return refund, application.NewInternalError(err)
	}

	persistCtx := context.WithoutCancel(ctx)
	if err := s.repo.Update(persistCtx, refund); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist refund outcome",
			"transaction_record_id", refund.ID,
			"status", refund.Status,
			"error", err,
		)
		return refund, application.NewInternalError(err)
	}

	if refund.IsSuccessful() && full {
		swapped, err := s.repo.MarkRefunded(persistCtx, current.ID, at)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to mark original transaction refunded",
				"original_record_id", current.ID,
				"error", err,
			)
			return refund, application.NewInternalError(err)
		}
		if swapped {
			_ = original.MarkRefunded(at)
		} else {
			s.logger.WarnContext(ctx, "original transaction was no longer refundable",
				"original_record_id", current.ID,
			)
		}
	}

	s.logger.InfoContext(ctx, "refund processed",
		"refund_id", refund.TransactionID,
		"original_id", current.TransactionID,
		"amount", refundAmountLabel,
		"status", refund.Status,
	)

	return refund, nil
}
