package services_test

import (
	"context"
	"errors"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/application/services"
	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func chargeCommand(card string) services.ChargeCommand {
	orderID := "order-42"
	return services.ChargeCommand{
		UserID:   "user-1",
		OrderID:  &orderID,
		Amount:   decimal.RequireFromString("50.00"),
		Currency: "USD",
		PaymentDetails: domain.PaymentDetails{
			CardNumber: card,
			CVV:        "123",
			Expiry:     "12/30",
		},
		Metadata: domain.Metadata{"source": "checkout"},
	}
}

// ============================================================================
// HAPPY PATH TESTS
// ============================================================================

func (s *PaymentServiceTestSuite) Test_ProcessPayment_Success() {
	ctx := context.Background()
	s.gateway.On("Charge", mock.Anything, mock.Anything).Return(approveCharge, nil).Once()

	tx, err := s.service.ProcessPayment(ctx, chargeCommand("4111111111111111"))

	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, tx.Status)
	s.Equal(domain.TypeCharge, tx.Type)
	s.Equal("ch_"+tx.ID, tx.TransactionID)
	s.Equal("50.00", tx.Amount.StringFixed(2))
	s.Equal("USD", tx.Currency)
	s.Equal(testGatewayName, tx.Gateway)
	s.Nil(tx.ErrorMessage)
	s.Equal("succeeded", tx.GatewayResponse["status"])
	s.Require().NotNil(tx.ProcessedAt)
	s.Equal(s.clock.Now(), *tx.ProcessedAt)

	stored, err := s.repo.FindByID(ctx, tx.ID)
	s.Require().NoError(err)
	s.Equal(tx.TransactionID, stored.TransactionID)
	s.Equal(domain.StatusCompleted, stored.Status)
	s.gateway.AssertNumberOfCalls(s.T(), "Charge", 1)
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_MasksPaymentMethod() {
	s.gateway.On("Charge", mock.Anything, mock.Anything).Return(approveCharge, nil).Once()

	tx, err := s.service.ProcessPayment(context.Background(), chargeCommand("5555555555554444"))

	s.Require().NoError(err)
	s.Require().NotNil(tx.PaymentMethod)
	s.Equal("Mastercard ****4444", *tx.PaymentMethod)
	for _, v := range tx.Metadata {
		s.NotEqual("5555555555554444", v)
	}
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_MergesMetadata() {
	s.gateway.On("Charge", mock.Anything, mock.Anything).Return(approveCharge, nil).Once()
	cmd := chargeCommand("4111111111111111")
	cmd.Metadata["user_id"] = "spoofed"

	tx, err := s.service.ProcessPayment(context.Background(), cmd)

	s.Require().NoError(err)
	sent := s.gateway.lastCharge()
	s.Equal("checkout", sent.Metadata["source"])
	s.Equal("user-1", sent.Metadata["user_id"])
	s.Equal(tx.ID, sent.Metadata["transaction_record_id"])
	s.Equal(tx.ID, sent.IdempotencyKey)
	s.Equal("checkout", tx.Metadata["source"])
	s.Equal("user-1", tx.Metadata["user_id"])
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_PendingRecordPersistedBeforeGatewayCall() {
	var (
		seen    *domain.Transaction
		seenErr error
	)
	s.gateway.On("Charge", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			req := args.Get(1).(application.ChargeRequest)
			seen, seenErr = s.repo.FindByID(args.Get(0).(context.Context), req.IdempotencyKey)
		}).
		Return(&application.ChargeResult{Success: true, TransactionID: "ch_1"}, nil).Once()

	_, err := s.service.ProcessPayment(context.Background(), chargeCommand("4111111111111111"))

	s.Require().NoError(err)
	s.Require().NoError(seenErr)
	s.Require().NotNil(seen)
	s.Equal(domain.StatusPending, seen.Status)
	s.Regexp(`^PENDING_`, seen.TransactionID)
	s.Nil(seen.ProcessedAt)
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_CurrencyFromMetadata() {
	s.gateway.On("Charge", mock.Anything, mock.MatchedBy(func(req application.ChargeRequest) bool {
		return req.Currency == "EUR"
	})).Return(approveCharge, nil).Once()
	cmd := chargeCommand("4111111111111111")
	cmd.Currency = ""
	cmd.Metadata["currency"] = "eur"

	tx, err := s.service.ProcessPayment(context.Background(), cmd)

	s.Require().NoError(err)
	s.Equal("EUR", tx.Currency)
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_DefaultsToUSD() {
	s.gateway.On("Charge", mock.Anything, mock.Anything).Return(approveCharge, nil).Once()
	cmd := chargeCommand("4111111111111111")
	cmd.Currency = ""

	tx, err := s.service.ProcessPayment(context.Background(), cmd)

	s.Require().NoError(err)
	s.Equal("USD", tx.Currency)
	s.Equal("USD", s.gateway.lastCharge().Currency)
}

// ============================================================================
// DECLINES AND GATEWAY FAILURES
// ============================================================================

func (s *PaymentServiceTestSuite) Test_ProcessPayment_Decline() {
	s.gateway.On("Charge", mock.Anything, mock.Anything).Return(&application.ChargeResult{
		Success:     false,
		Message:     "Insufficient funds",
		RawResponse: map[string]any{"error_code": "card_declined"},
	}, nil).Once()

	tx, err := s.service.ProcessPayment(context.Background(), chargeCommand("4111111111111111"))

	s.Require().NoError(err)
	s.Equal(domain.StatusFailed, tx.Status)
	s.Regexp(`^PENDING_`, tx.TransactionID)
	s.Require().NotNil(tx.ErrorMessage)
	s.Equal("Insufficient funds", *tx.ErrorMessage)
	s.Equal("card_declined", tx.GatewayResponse["error_code"])
	s.NotNil(tx.ProcessedAt)
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_GatewayErrorIsRecorded() {
	s.gateway.On("Charge", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	tx, err := s.service.ProcessPayment(context.Background(), chargeCommand("4111111111111111"))

	s.Require().NoError(err)
	s.Equal(domain.StatusFailed, tx.Status)
	s.Require().NotNil(tx.ErrorMessage)
	s.Equal("connection refused", *tx.ErrorMessage)
	s.NotNil(tx.ProcessedAt)

	stored, err := s.repo.FindByID(context.Background(), tx.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusFailed, stored.Status)
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_GatewayPanicIsRecorded() {
	s.gateway.On("Charge", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("processor exploded") }).
		Return(nil, nil).Once()

	tx, err := s.service.ProcessPayment(context.Background(), chargeCommand("4111111111111111"))

	s.Require().NoError(err)
	s.Equal(domain.StatusFailed, tx.Status)
	s.Require().NotNil(tx.ErrorMessage)
	s.Contains(*tx.ErrorMessage, "processor exploded")
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_GatewayTimeoutIsRecorded() {
	service := services.NewPaymentService(s.repo, s.gateway, s.clock, discardLogger(), 20*time.Millisecond)
	s.gateway.On("Charge", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, _ application.ChargeRequest) (*application.ChargeResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}, nil).Once()

	tx, err := service.ProcessPayment(context.Background(), chargeCommand("4111111111111111"))

	s.Require().NoError(err)
	s.Equal(domain.StatusFailed, tx.Status)
	s.Require().NotNil(tx.ErrorMessage)
	s.Contains(*tx.ErrorMessage, "deadline exceeded")
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_NilResultIsRecorded() {
	s.gateway.On("Charge", mock.Anything, mock.Anything).Return(nil, nil).Once()

	tx, err := s.service.ProcessPayment(context.Background(), chargeCommand("4111111111111111"))

	s.Require().NoError(err)
	s.Equal(domain.StatusFailed, tx.Status)
}

// ============================================================================
// VALIDATION AND PERSISTENCE TESTS
// ============================================================================

func (s *PaymentServiceTestSuite) Test_ProcessPayment_ValidationErrors() {
	tests := []struct {
		name    string
		mutate  func(*services.ChargeCommand)
		wantErr error
	}{
		{"zero amount", func(c *services.ChargeCommand) { c.Amount = decimal.Zero }, domain.ErrInvalidAmount},
		{"negative amount", func(c *services.ChargeCommand) { c.Amount = decimal.RequireFromString("-5") }, domain.ErrInvalidAmount},
		{"missing user", func(c *services.ChargeCommand) { c.UserID = "" }, domain.ErrMissingRequiredField},
		{"malformed currency", func(c *services.ChargeCommand) { c.Currency = "DOLLARS" }, domain.ErrInvalidCurrency},
		{"unsupported currency", func(c *services.ChargeCommand) { c.Currency = "JPY" }, domain.ErrUnsupportedCurrency},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			cmd := chargeCommand("4111111111111111")
			tt.mutate(&cmd)

			tx, err := s.service.ProcessPayment(context.Background(), cmd)

			s.ErrorIs(err, tt.wantErr)
			s.Nil(tx)
			s.gateway.AssertNotCalled(s.T(), "Charge", mock.Anything, mock.Anything)
			all, listErr := s.repo.List(context.Background(), domain.TransactionFilter{})
			s.Require().NoError(listErr)
			s.Empty(all)
		})
	}
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_CreateFailure() {
	repo := &failingRepository{TransactionRepository: s.repo, failCreate: true}
	service := services.NewPaymentService(repo, s.gateway, s.clock, discardLogger(), time.Second)

	tx, err := service.ProcessPayment(context.Background(), chargeCommand("4111111111111111"))

	s.Nil(tx)
	svcErr, ok := application.IsServiceError(err)
	s.Require().True(ok)
	s.Equal(application.ErrCodeInternal, svcErr.Code)
	s.gateway.AssertNotCalled(s.T(), "Charge", mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_UpdateFailureReturnsRecord() {
	repo := &failingRepository{TransactionRepository: s.repo, failUpdate: true}
	service := services.NewPaymentService(repo, s.gateway, s.clock, discardLogger(), time.Second)
	s.gateway.On("Charge", mock.Anything, mock.Anything).Return(approveCharge, nil).Once()

	tx, err := service.ProcessPayment(context.Background(), chargeCommand("4111111111111111"))

	s.Require().NotNil(tx)
	s.Equal(domain.StatusCompleted, tx.Status)
	s.ErrorIs(err, errStorageDown)
}

func (s *PaymentServiceTestSuite) Test_ProcessPayment_RecordsSurviveCallerCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	s.gateway.On("Charge", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(&application.ChargeResult{Success: true, TransactionID: "ch_late"}, nil).Once()

	tx, err := s.service.ProcessPayment(ctx, chargeCommand("4111111111111111"))

	s.Require().NoError(err)
	stored, err := s.repo.FindByID(context.Background(), tx.ID)
	s.Require().NoError(err)
	s.Equal("ch_late", stored.TransactionID)
	s.Equal(domain.StatusCompleted, stored.Status)
}
