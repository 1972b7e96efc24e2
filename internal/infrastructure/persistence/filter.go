package persistence

import (
	"fmt"
	"strings"

	"github.com/DanielPopoola/payment-engine/internal/domain"
)

// Placeholder renders the n-th (1-based) bind parameter for a SQL dialect.
type Placeholder func(n int) string

func DollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }
func QuestionPlaceholder(int) string { return "?" }

// BuildListQuery appends the WHERE, ORDER BY and paging clauses for filter to
// base. Newest records come first.
func BuildListQuery(base string, filter domain.TransactionFilter, ph Placeholder) (string, []any) {
	filter = filter.Normalize()

	var (
		conds []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = %s", column, ph(len(args))))
	}

	if filter.UserID != "" {
		add("user_id", filter.UserID)
	}
	if filter.OrderID != "" {
		add("order_id", filter.OrderID)
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
	}
	if filter.Type != "" {
		add("type", string(filter.Type))
	}
	if filter.Gateway != "" {
		add("gateway", filter.Gateway)
	}

	var sb strings.Builder
	sb.WriteString(base)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	args = append(args, filter.Limit)
	limit := ph(len(args))
	args = append(args, filter.Offset)
	offset := ph(len(args))
	fmt.Fprintf(&sb, " ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %s", limit, offset)

	return sb.String(), args
}
