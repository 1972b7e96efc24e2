package testhelpers

import (
	"context"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/domain"
	"github.com/stretchr/testify/suite"
)

// RepositorySuite is the behaviour every TransactionRepository adapter must
// share. Adapters embed it and set NewRepository.
type RepositorySuite struct {
	suite.Suite
	NewRepository func() application.TransactionRepository

	repo application.TransactionRepository
	ctx  context.Context
	now  time.Time
}

func (s *RepositorySuite) SetupTest() {
	s.Require().NotNil(s.NewRepository, "NewRepository must be set")
	s.repo = s.NewRepository()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RepositorySuite) TestCreateAndFindByID() {
	tx := NewPendingCharge(s.T(), "user-1", "99.99", s.now)

	s.Require().NoError(s.repo.Create(s.ctx, tx))

	found, err := s.repo.FindByID(s.ctx, tx.ID)
	s.Require().NoError(err)
	s.Equal(tx.TransactionID, found.TransactionID)
	s.Equal(domain.TypeCharge, found.Type)
	s.Equal(domain.StatusPending, found.Status)
	s.Equal("99.99", found.Amount.StringFixed(2))
	s.Equal("USD", found.Currency)
	s.Equal("user-1", found.UserID)
	s.Require().NotNil(found.OrderID)
	s.Equal(*tx.OrderID, *found.OrderID)
	s.Require().NotNil(found.PaymentMethod)
	s.Equal("Visa ****1111", *found.PaymentMethod)
	s.Equal("test", found.Metadata["source"])
	s.Nil(found.GatewayResponse)
	s.Nil(found.ErrorMessage)
	s.Nil(found.ProcessedAt)
	s.True(tx.CreatedAt.Equal(found.CreatedAt))
}

func (s *RepositorySuite) TestFindByID_NotFound() {
	_, err := s.repo.FindByID(s.ctx, "missing")

	s.ErrorIs(err, domain.ErrTransactionNotFound)
}

func (s *RepositorySuite) TestCreate_DuplicateTransactionID() {
	first := NewPendingCharge(s.T(), "user-1", "10.00", s.now)
	second := NewPendingCharge(s.T(), "user-1", "10.00", s.now)
	second.TransactionID = first.TransactionID

	s.Require().NoError(s.repo.Create(s.ctx, first))
	err := s.repo.Create(s.ctx, second)

	s.ErrorIs(err, domain.ErrDuplicateTransaction)
}

func (s *RepositorySuite) TestUpdate_PersistsOutcome() {
	tx := NewPendingCharge(s.T(), "user-1", "25.00", s.now)
	s.Require().NoError(s.repo.Create(s.ctx, tx))

	processedAt := s.now.Add(time.Second)
	s.Require().NoError(tx.Fail("Payment declined", "", map[string]any{"error_code": "card_declined"}, processedAt))
	s.Require().NoError(s.repo.Update(s.ctx, tx))

	found, err := s.repo.FindByID(s.ctx, tx.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusFailed, found.Status)
	s.Require().NotNil(found.ErrorMessage)
	s.Equal("Payment declined", *found.ErrorMessage)
	s.Equal("card_declined", found.GatewayResponse["error_code"])
	s.Require().NotNil(found.ProcessedAt)
	s.True(processedAt.Equal(*found.ProcessedAt))
}

func (s *RepositorySuite) TestUpdate_ReplacesTransactionID() {
	tx := NewPendingCharge(s.T(), "user-1", "25.00", s.now)
	s.Require().NoError(s.repo.Create(s.ctx, tx))

	s.Require().NoError(tx.Complete("MOCK_REPLACED", nil, s.now))
	s.Require().NoError(s.repo.Update(s.ctx, tx))

	found, err := s.repo.FindByTransactionID(s.ctx, "MOCK_REPLACED")
	s.Require().NoError(err)
	s.Equal(tx.ID, found.ID)
	s.Equal(domain.StatusCompleted, found.Status)
}

func (s *RepositorySuite) TestUpdate_NotFound() {
	tx := NewPendingCharge(s.T(), "user-1", "25.00", s.now)

	err := s.repo.Update(s.ctx, tx)

	s.ErrorIs(err, domain.ErrTransactionNotFound)
}

func (s *RepositorySuite) TestList_FiltersAndOrders() {
	older := NewCompletedCharge(s.T(), "user-1", "10.00", s.now)
	newer := NewPendingCharge(s.T(), "user-1", "20.00", s.now.Add(time.Minute))
	refund := NewPendingRefund(s.T(), "user-1", "5.00", s.now.Add(2*time.Minute))
	other := NewPendingCharge(s.T(), "user-2", "30.00", s.now.Add(3*time.Minute))
	for _, tx := range []*domain.Transaction{older, newer, refund, other} {
		s.Require().NoError(s.repo.Create(s.ctx, tx))
	}

	all, err := s.repo.List(s.ctx, domain.TransactionFilter{UserID: "user-1"})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(refund.ID, all[0].ID)
	s.Equal(older.ID, all[2].ID)

	charges, err := s.repo.List(s.ctx, domain.TransactionFilter{UserID: "user-1", Type: domain.TypeCharge})
	s.Require().NoError(err)
	s.Len(charges, 2)

	completed, err := s.repo.List(s.ctx, domain.TransactionFilter{Status: domain.StatusCompleted})
	s.Require().NoError(err)
	s.Require().Len(completed, 1)
	s.Equal(older.ID, completed[0].ID)

	byOrder, err := s.repo.List(s.ctx, domain.TransactionFilter{OrderID: *other.OrderID})
	s.Require().NoError(err)
	s.Require().Len(byOrder, 1)
	s.Equal(other.ID, byOrder[0].ID)

	paged, err := s.repo.List(s.ctx, domain.TransactionFilter{Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(paged, 2)
	s.Equal(refund.ID, paged[0].ID)
}

func (s *RepositorySuite) TestFindStalePending() {
	stale := NewPendingCharge(s.T(), "user-1", "10.00", s.now.Add(-time.Hour))
	fresh := NewPendingCharge(s.T(), "user-1", "10.00", s.now)
	done := NewCompletedCharge(s.T(), "user-1", "10.00", s.now.Add(-2*time.Hour))
	for _, tx := range []*domain.Transaction{stale, fresh, done} {
		s.Require().NoError(s.repo.Create(s.ctx, tx))
	}

	found, err := s.repo.FindStalePending(s.ctx, s.now.Add(-time.Minute), 10)

	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(stale.ID, found[0].ID)
}

func (s *RepositorySuite) TestMarkRefunded_CompareAndSwap() {
	charge := NewCompletedCharge(s.T(), "user-1", "10.00", s.now)
	s.Require().NoError(s.repo.Create(s.ctx, charge))

	swapped, err := s.repo.MarkRefunded(s.ctx, charge.ID, s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.True(swapped)

	swapped, err = s.repo.MarkRefunded(s.ctx, charge.ID, s.now.Add(2*time.Minute))
	s.Require().NoError(err)
	s.False(swapped)

	found, err := s.repo.FindByID(s.ctx, charge.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusRefunded, found.Status)
}

func (s *RepositorySuite) TestMarkRefunded_IgnoresPendingAndRefundRows() {
	pending := NewPendingCharge(s.T(), "user-1", "10.00", s.now)
	refund := NewPendingRefund(s.T(), "user-1", "10.00", s.now)
	s.Require().NoError(refund.Complete("REFUND_X", nil, s.now))
	s.Require().NoError(s.repo.Create(s.ctx, pending))
	s.Require().NoError(s.repo.Create(s.ctx, refund))

	for _, id := range []string{pending.ID, refund.ID, "missing"} {
		swapped, err := s.repo.MarkRefunded(s.ctx, id, s.now)
		s.Require().NoError(err)
		s.False(swapped)
	}
}
