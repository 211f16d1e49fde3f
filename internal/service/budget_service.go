package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/operator/actions"
	"github.com/carson-networks/finance-tracker/internal/storage/budget"
)

// BudgetService persists budget maps. It backs budget.Manager.
type BudgetService struct {
	processor actionProcessor
	reader    budget.IBudgetReader
}

func NewBudgetService(processor actionProcessor, reader budget.IBudgetReader) *BudgetService {
	return &BudgetService{
		processor: processor,
		reader:    reader,
	}
}

// LoadBudgets returns the user's budget map, creating an empty one on first access.
func (s *BudgetService) LoadBudgets(ctx context.Context, userID string) (models.BudgetMap, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}

	budgets, exists, err := s.reader.Load(ctx, userID)
	if err != nil {
		return nil, classify("load budgets", err)
	}
	if exists {
		return budgets, nil
	}

	if err := s.processor.Process(ctx, &actions.EnsureBudgetMap{UserID: userID}); err != nil {
		return nil, classify("create budget map", err)
	}
	return models.BudgetMap{}, nil
}

// SetBudget stores one category's budget. Last write wins.
func (s *BudgetService) SetBudget(ctx context.Context, userID, category string, amount decimal.Decimal) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}
	if !models.IsBudgetCategory(category) {
		return models.ErrInvalidCategory
	}
	if amount.IsNegative() || models.CheckAmount(amount) != nil {
		return models.ErrInvalidBudget
	}

	err := s.processor.Process(ctx, &actions.SetBudget{UserID: userID, Category: category, Amount: amount})
	return classify("set budget", err)
}
