package domain

// TransactionFilter narrows a transaction listing. Zero-valued fields are ignored.
type TransactionFilter struct {
	UserID  string
	OrderID string
	Status  TransactionStatus
	Type    TransactionType
	Gateway string
	Limit   int
	Offset  int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalize clamps paging values to sane bounds.
func (f TransactionFilter) Normalize() TransactionFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
