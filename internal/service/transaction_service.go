package service

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/operator/actions"
)

// TransactionService handles transaction business logic.
type TransactionService struct {
	processor actionProcessor
	newID     func() (uuid.UUID, error)
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(processor actionProcessor) *TransactionService {
	return &TransactionService{
		processor: processor,
		newID:     uuid.NewV4,
	}
}

// CreateTransaction validates and records a transaction for userID and returns its ID.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, input models.NewTransaction) (uuid.UUID, error) {
	if userID == "" {
		return uuid.Nil, models.ErrUnauthenticated
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return uuid.Nil, models.ErrInvalidDescription
	}
	if input.Amount.IsNegative() {
		return uuid.Nil, models.ErrInvalidAmount
	}
	if err := models.CheckAmount(input.Amount); err != nil {
		return uuid.Nil, err
	}
	txType, err := models.ParseTransactionType(string(input.Type))
	if err != nil {
		return uuid.Nil, err
	}
	category, err := models.NormalizeCategory(txType, input.Category)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := s.newID()
	if err != nil {
		return uuid.Nil, err
	}

	action := &actions.CreateTransaction{
		ID:          id,
		UserID:      userID,
		Description: description,
		Amount:      input.Amount,
		Type:        txType,
		Category:    category,
	}
	if err := s.processor.Process(ctx, action); err != nil {
		return uuid.Nil, classify("create transaction", err)
	}

	return id, nil
}

// UpdateTransaction applies the set fields of patch to a transaction userID owns.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID string, id uuid.UUID, patch models.TransactionPatch) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}
	if patch.IsEmpty() {
		return nil
	}

	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" {
			return models.ErrInvalidDescription
		}
		patch.Description = &description
	}
	if patch.Amount != nil {
		if patch.Amount.IsNegative() {
			return models.ErrInvalidAmount
		}
		if err := models.CheckAmount(*patch.Amount); err != nil {
			return err
		}
	}
	if patch.Type != nil {
		if _, err := models.ParseTransactionType(string(*patch.Type)); err != nil {
			return err
		}
	}

	err := s.processor.Process(ctx, &actions.UpdateTransaction{ID: id, UserID: userID, Patch: patch})
	return classify("update transaction", err)
}

// DeleteTransaction removes a transaction userID owns.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}

	err := s.processor.Process(ctx, &actions.DeleteTransaction{ID: id, UserID: userID})
	return classify("delete transaction", err)
}
