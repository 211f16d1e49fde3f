package actions

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-tracker/internal/storage"
)

type SetBudget struct {
	UserID   string
	Category string
	Amount   decimal.Decimal
}

func (s *SetBudget) Owner() string {
	return s.UserID
}

func (s *SetBudget) Perform(ctx context.Context, writer *storage.Writer) error {
	return writer.Budgets.Upsert(ctx, s.UserID, s.Category, s.Amount)
}

// EnsureBudgetMap creates the user's empty budget map on first access.
type EnsureBudgetMap struct {
	UserID string
}

func (e *EnsureBudgetMap) Owner() string {
	return e.UserID
}

func (e *EnsureBudgetMap) Perform(ctx context.Context, writer *storage.Writer) error {
	return writer.Budgets.EnsureMap(ctx, e.UserID)
}
