package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/storage"
	"github.com/carson-networks/finance-tracker/internal/storage/transaction"
)

type CreateTransaction struct {
	ID          uuid.UUID
	UserID      string
	Description string
	Amount      decimal.Decimal
	Type        models.TransactionType
	Category    string
}

func (c *CreateTransaction) Owner() string {
	return c.UserID
}

func (c *CreateTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	return writer.Transactions.Insert(ctx, &transaction.TransactionCreate{
		ID:          c.ID,
		UserID:      c.UserID,
		Description: c.Description,
		Amount:      c.Amount,
		Type:        c.Type,
		Category:    c.Category,
	})
}
