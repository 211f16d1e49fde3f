package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/operator/actions"
	"github.com/carson-networks/finance-tracker/internal/storage/budget"
)

// actionProcessor runs write actions. *operator.OperatorDelegator satisfies it.
type actionProcessor interface {
	Process(ctx context.Context, action actions.IAction) error
}

// Service holds all business logic services.
type Service struct {
	Transaction *TransactionService
	Budget      *BudgetService
}

// NewService creates a new Service writing through processor and reading budgets from budgets.
func NewService(processor actionProcessor, budgets budget.IBudgetReader) *Service {
	return &Service{
		Transaction: NewTransactionService(processor),
		Budget:      NewBudgetService(processor, budgets),
	}
}

// classify keeps domain errors as they are and marks anything else as a
// collaborator failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrUnauthenticated),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidType),
		errors.Is(err, models.ErrInvalidCategory),
		errors.Is(err, models.ErrInvalidDescription),
		errors.Is(err, models.ErrInvalidBudget),
		errors.Is(err, models.ErrUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrUnavailable, err)
}
