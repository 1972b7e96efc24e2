package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/domain"
)

// TransactionRepository keeps records in process memory.
// Used for development and tests; nothing survives a restart.
type TransactionRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Transaction
	byTxID map[string]string
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		byID:   make(map[string]*domain.Transaction),
		byTxID: make(map[string]string),
	}
}

func (r *TransactionRepository) Create(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byTxID[tx.TransactionID]; exists {
		return domain.NewDuplicateTransactionError(tx.TransactionID)
	}
	if _, exists := r.byID[tx.ID]; exists {
		return domain.NewDuplicateTransactionError(tx.TransactionID)
	}

	r.byID[tx.ID] = clone(tx)
	r.byTxID[tx.TransactionID] = tx.ID
	return nil
}

func (r *TransactionRepository) Update(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.byID[tx.ID]
	if !exists {
		return domain.NewTransactionNotFoundError(tx.ID)
	}
	if owner, taken := r.byTxID[tx.TransactionID]; taken && owner != tx.ID {
		return domain.NewDuplicateTransactionError(tx.TransactionID)
	}

	delete(r.byTxID, stored.TransactionID)

	updated := clone(stored)
	updated.TransactionID = tx.TransactionID
	updated.Status = tx.Status
	updated.GatewayResponse = maps.Clone(tx.GatewayResponse)
	updated.ErrorMessage = tx.ErrorMessage
	updated.ProcessedAt = tx.ProcessedAt
	updated.UpdatedAt = tx.UpdatedAt

	r.byID[tx.ID] = updated
	r.byTxID[tx.TransactionID] = tx.ID
	return nil
}

func (r *TransactionRepository) FindByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, exists := r.byID[id]
	if !exists {
		return nil, domain.NewTransactionNotFoundError(id)
	}
	return clone(tx), nil
}

func (r *TransactionRepository) FindByTransactionID(_ context.Context, transactionID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byTxID[transactionID]
	if !exists {
		return nil, domain.NewTransactionNotFoundError(transactionID)
	}
	return clone(r.byID[id]), nil
}

func (r *TransactionRepository) List(_ context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	filter = filter.Normalize()

	r.mu.RLock()
	var matched []*domain.Transaction
	for _, tx := range r.byID {
		if matches(tx, filter) {
			matched = append(matched, clone(tx))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, newestFirst)

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *TransactionRepository) FindStalePending(_ context.Context, before time.Time, limit int) ([]*domain.Transaction, error) {
	r.mu.RLock()
	var stale []*domain.Transaction
	for _, tx := range r.byID {
		if tx.Status == domain.StatusPending && tx.CreatedAt.Before(before) {
			stale = append(stale, clone(tx))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(stale, func(a, b *domain.Transaction) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (r *TransactionRepository) MarkRefunded(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, exists := r.byID[id]
	if !exists || tx.Type != domain.TypeCharge || tx.Status != domain.StatusCompleted {
		return false, nil
	}

	updated := clone(tx)
	updated.Status = domain.StatusRefunded
	updated.UpdatedAt = at
	r.byID[id] = updated
	return true, nil
}

func matches(tx *domain.Transaction, f domain.TransactionFilter) bool {
	if f.UserID != "" && tx.UserID != f.UserID {
		return false
	}
	if f.OrderID != "" && (tx.OrderID == nil || *tx.OrderID != f.OrderID) {
		return false
	}
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Gateway != "" && tx.Gateway != f.Gateway {
		return false
	}
	return true
}

func newestFirst(a, b *domain.Transaction) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	}
	return 0
}

// clone copies the record so callers never share maps with the store.
func clone(tx *domain.Transaction) *domain.Transaction {
	c := *tx
	c.Metadata = maps.Clone(tx.Metadata)
	c.GatewayResponse = maps.Clone(tx.GatewayResponse)
	if tx.ProcessedAt != nil {
		at := *tx.ProcessedAt
		c.ProcessedAt = &at
	}
	return &c
}
