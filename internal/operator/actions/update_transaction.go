package actions

import (
	"context"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/storage"
	"github.com/carson-networks/finance-tracker/internal/storage/transaction"
)

// UpdateTransaction applies a partial update to a transaction the user owns.
// The resulting type and category pair must still be valid.
type UpdateTransaction struct {
	ID     uuid.UUID
	UserID string
	Patch  models.TransactionPatch
}

func (u *UpdateTransaction) Owner() string {
	return u.UserID
}

func (u *UpdateTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	existing, err := writer.Transactions.FindByIDForUpdate(ctx, u.ID)
	if err != nil {
		return err
	}
	if existing == nil || existing.UserID != u.UserID {
		return models.ErrNotFound
	}

	update := &transaction.TransactionUpdate{}
	if u.Patch.Description != nil {
		update.Description = omit.From(*u.Patch.Description)
	}
	if u.Patch.Amount != nil {
		update.Amount = omit.From(*u.Patch.Amount)
	}

	txType := existing.Type
	if u.Patch.Type != nil {
		txType = *u.Patch.Type
		update.Type = omit.From(txType)
	}

	if u.Patch.Category != nil || u.Patch.Type != nil {
		category := existing.Category
		if u.Patch.Category != nil {
			category = *u.Patch.Category
		}
		normalized, err := models.NormalizeCategory(txType, category)
		if err != nil {
			return err
		}
		update.Category = omit.From(normalized)
	}

	return writer.Transactions.Update(ctx, u.ID, update)
}
