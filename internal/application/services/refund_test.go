package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/application/services"
	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/DanielPopoola/payment-engine/internal/infrastructure/persistence/testhelpers"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ============================================================================
// HAPPY PATH TESTS
// ============================================================================

func (s *PaymentServiceTestSuite) Test_ProcessRefund_Full() {
	ctx := context.Background()
	charge := s.completedCharge()
	s.gateway.On("Refund", mock.Anything, mock.Anything).Return(approveRefund, nil).Once()
	s.clock.Advance(time.Minute)

	refund, err := s.service.ProcessRefund(ctx, charge, nil)

	s.Require().NoError(err)
	s.Equal(domain.TypeRefund, refund.Type)
	s.Equal(domain.StatusCompleted, refund.Status)
	s.Equal("re_"+refund.ID, refund.TransactionID)
	s.Equal("50.00", refund.Amount.StringFixed(2))
	s.Equal("USD", refund.Currency)
	s.Equal(charge.UserID, refund.UserID)
	s.Equal(charge.OrderID, refund.OrderID)
	s.Equal(charge.TransactionID, refund.Metadata["original_transaction_id"])
	s.Equal(charge.ID, refund.Metadata["original_record_id"])
	s.Equal("full", refund.Metadata["refund_type"])
	s.Equal("full", refund.Metadata["refund_amount"])

	sent := s.gateway.lastRefund()
	s.Equal(charge.TransactionID, sent.TransactionID)
	s.Nil(sent.Amount)
	s.Equal(refund.ID, sent.IdempotencyKey)

	s.Equal(domain.StatusRefunded, charge.Status)
	stored, err := s.repo.FindByID(ctx, charge.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusRefunded, stored.Status)
	s.Equal(s.clock.Now(), stored.UpdatedAt)
}

func (s *PaymentServiceTestSuite) Test_ProcessRefund_Partial() {
	ctx := context.Background()
	charge := s.completedCharge()
	s.gateway.On("Refund", mock.Anything, mock.Anything).Return(approveRefund, nil).Once()

	refund, err := s.service.ProcessRefund(ctx, charge, amount("20.00"))

	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, refund.Status)
	s.Equal("20.00", refund.Amount.StringFixed(2))
	s.Equal("partial", refund.Metadata["refund_type"])
	s.Equal("20.00", refund.Metadata["refund_amount"])
	s.Require().NotNil(s.gateway.lastRefund().Amount)
	s.Equal("20.00", s.gateway.lastRefund().Amount.StringFixed(2))

	stored, err := s.repo.FindByID(ctx, charge.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, stored.Status)
}

func (s *PaymentServiceTestSuite) Test_ProcessRefund_ExplicitFullAmountCascades() {
	ctx := context.Background()
	charge := s.completedCharge()
	s.gateway.On("Refund", mock.Anything, mock.Anything).Return(approveRefund, nil).Once()

	refund, err := s.service.ProcessRefund(ctx, charge, amount("50.00"))

	s.Require().NoError(err)
	s.Equal("full", refund.Metadata["refund_type"])
	s.Equal("50.00", refund.Metadata["refund_amount"])

	stored, err := s.repo.FindByID(ctx, charge.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusRefunded, stored.Status)
}

func (s *PaymentServiceTestSuite) Test_RefundByID() {
	charge := s.completedCharge()
	s.gateway.On("Refund", mock.Anything, mock.Anything).Return(approveRefund, nil).Once()

	refund, err := s.service.RefundByID(context.Background(), services.RefundCommand{
		TransactionRecordID: charge.ID,
		Amount:              amount("10.00"),
	})

	s.Require().NoError(err)
	s.Equal("10.00", refund.Amount.StringFixed(2))

	_, err = s.service.RefundByID(context.Background(), services.RefundCommand{TransactionRecordID: "missing"})
	s.ErrorIs(err, domain.ErrTransactionNotFound)
	s.gateway.AssertNumberOfCalls(s.T(), "Refund", 1)
}

// ============================================================================
// REJECTION TESTS
// ============================================================================

func (s *PaymentServiceTestSuite) Test_ProcessRefund_RejectsInvalidAmounts() {
	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{"zero", "0", domain.ErrInvalidAmount},
		{"negative", "-1.00", domain.ErrInvalidAmount},
		{"rounds to zero", "0.004", domain.ErrInvalidAmount},
		{"exceeds original", "50.01", domain.ErrRefundExceedsOriginal},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			charge := s.completedCharge()

			refund, err := s.service.ProcessRefund(context.Background(), charge, amount(tt.amount))

			s.ErrorIs(err, tt.wantErr)
			s.Nil(refund)
			s.gateway.AssertNotCalled(s.T(), "Refund", mock.Anything, mock.Anything)
			s.Empty(s.refunds())
		})
	}
}

func (s *PaymentServiceTestSuite) Test_ProcessRefund_RejectsNonCompletedOriginal() {
	tests := []struct {
		name   string
		status domain.TransactionStatus
	}{
		{"pending", domain.StatusPending},
		{"failed", domain.StatusFailed},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			ctx := context.Background()
			original := testhelpers.NewPendingCharge(s.T(), "user-1", "50.00", s.clock.Now())
			if tt.status == domain.StatusFailed {
				s.Require().NoError(original.Fail("declined", "", nil, s.clock.Now()))
			}
			s.Require().NoError(s.repo.Create(ctx, original))

			refund, err := s.service.ProcessRefund(ctx, original, nil)

			s.ErrorIs(err, domain.ErrInvalidState)
			s.Nil(refund)
			s.gateway.AssertNotCalled(s.T(), "Refund", mock.Anything, mock.Anything)
			s.Empty(s.refunds())

			stored, err := s.repo.FindByID(ctx, original.ID)
			s.Require().NoError(err)
			s.Equal(tt.status, stored.Status)
		})
	}
}

func (s *PaymentServiceTestSuite) Test_ProcessRefund_RejectsRefundOfRefund() {
	ctx := context.Background()
	charge := s.completedCharge()
	s.gateway.On("Refund", mock.Anything, mock.Anything).Return(approveRefund, nil).Once()
	refund, err := s.service.ProcessRefund(ctx, charge, amount("5.00"))
	s.Require().NoError(err)

	_, err = s.service.ProcessRefund(ctx, refund, nil)

	s.ErrorIs(err, domain.ErrInvalidState)
	s.gateway.AssertNumberOfCalls(s.T(), "Refund", 1)
	s.Len(s.refunds(), 1)
}

func (s *PaymentServiceTestSuite) Test_ProcessRefund_UsesStoredStateNotCallerCopy() {
	ctx := context.Background()
	charge := s.completedCharge()
	stale := *charge
	s.gateway.On("Refund", mock.Anything, mock.Anything).Return(approveRefund, nil).Once()
	_, err := s.service.ProcessRefund(ctx, charge, nil)
	s.Require().NoError(err)

	_, err = s.service.ProcessRefund(ctx, &stale, nil)

	s.ErrorIs(err, domain.ErrInvalidState)
	s.gateway.AssertNumberOfCalls(s.T(), "Refund", 1)
	s.Len(s.refunds(), 1)
}

func (s *PaymentServiceTestSuite) Test_ProcessRefund_UnknownOriginal() {
	original := testhelpers.NewCompletedCharge(s.T(), "user-1", "50.00", s.clock.Now())

	_, err := s.service.ProcessRefund(context.Background(), original, nil)

	s.ErrorIs(err, domain.ErrTransactionNotFound)
	s.gateway.AssertNotCalled(s.T(), "Refund", mock.Anything, mock.Anything)

	_, err = s.service.ProcessRefund(context.Background(), nil, nil)
	s.ErrorIs(err, domain.ErrMissingRequiredField)
}

// ============================================================================
// GATEWAY FAILURE TESTS
// ============================================================================

func (s *PaymentServiceTestSuite) Test_ProcessRefund_GatewayErrorLeavesOriginalCompleted() {
	ctx := context.Background()
	charge := s.completedCharge()
	s.gateway.On("Refund", mock.Anything, mock.Anything).Return(nil, errors.New("processor offline")).Once()

	refund, err := s.service.ProcessRefund(ctx, charge, nil)

	s.Require().NoError(err)
	s.Equal(domain.StatusFailed, refund.Status)
	s.Require().NotNil(refund.ErrorMessage)
	s.Equal("processor offline", *refund.ErrorMessage)
	s.Regexp(`^REFUND_PENDING_`, refund.TransactionID)

	stored, err := s.repo.FindByID(ctx, charge.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, stored.Status)
	s.Equal(domain.StatusCompleted, charge.Status)
}

func (s *PaymentServiceTestSuite) Test_ProcessRefund_Decline() {
	ctx := context.Background()
	charge := s.completedCharge()
	s.gateway.On("Refund", mock.Anything, mock.Anything).
		Return(&application.RefundResult{Success: false}, nil).Once()

	refund, err := s.service.ProcessRefund(ctx, charge, nil)

	s.Require().NoError(err)
	s.Equal(domain.StatusFailed, refund.Status)
	s.Require().NotNil(refund.ErrorMessage)
	s.Equal("Refund declined", *refund.ErrorMessage)
	s.Equal(false, refund.GatewayResponse["success"])

	stored, err := s.repo.FindByID(ctx, charge.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, stored.Status)
}

// ============================================================================
// CONCURRENCY TESTS
// ============================================================================

func (s *PaymentServiceTestSuite) Test_ProcessRefund_ConcurrentFullRefundsCascadeOnce() {
	ctx := context.Background()
	charge := s.completedCharge()
	s.gateway.On("Refund", mock.Anything, mock.Anything).Return(approveRefund, nil)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			copyOf := *charge
			_, err := s.service.ProcessRefund(ctx, &copyOf, nil)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, domain.ErrInvalidState) {
				rejected++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(callers-1, rejected)
	s.gateway.AssertNumberOfCalls(s.T(), "Refund", 1)
	s.Len(s.refunds(), 1)

	stored, err := s.repo.FindByID(ctx, charge.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusRefunded, stored.Status)
}
