package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/storage"
)

type DeleteTransaction struct {
	ID     uuid.UUID
	UserID string
}

func (d *DeleteTransaction) Owner() string {
	return d.UserID
}

func (d *DeleteTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	existing, err := writer.Transactions.FindByIDForUpdate(ctx, d.ID)
	if err != nil {
		return err
	}
	if existing == nil || existing.UserID != d.UserID {
		return models.ErrNotFound
	}
	return writer.Transactions.Delete(ctx, d.ID)
}
