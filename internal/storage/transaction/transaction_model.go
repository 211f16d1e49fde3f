package transaction

import (
	"context"
	"database/sql"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-tracker/internal/models"
)

const tableName = "transactions"

var columns = []any{"id", "user_id", "description", "amount", "type", "category", "created_at"}

// row is the scan target for the transactions table.
type row struct {
	ID          uuid.UUID           `db:"id"`
	UserID      string              `db:"user_id"`
	Description string              `db:"description"`
	Amount      decimal.NullDecimal `db:"amount"`
	Type        string              `db:"type"`
	Category    string              `db:"category"`
	CreatedAt   sql.NullTime        `db:"created_at"`
}

func rowToTransaction(r row) models.Transaction {
	tx := models.Transaction{
		ID:          r.ID,
		UserID:      r.UserID,
		Description: r.Description,
		Amount:      r.Amount,
		Type:        models.TransactionType(r.Type),
		Category:    r.Category,
	}
	if r.CreatedAt.Valid {
		createdAt := r.CreatedAt.Time
		tx.CreatedAt = &createdAt
	}
	return tx
}

// TransactionCreate is the input for inserting a transaction.
type TransactionCreate struct {
	ID          uuid.UUID
	UserID      string
	Description string
	Amount      decimal.Decimal
	Type        models.TransactionType
	Category    string
}

// TransactionUpdate holds the columns of a partial update. Unset values are left untouched.
type TransactionUpdate struct {
	Description omit.Val[string]
	Amount      omit.Val[decimal.Decimal]
	Type        omit.Val[models.TransactionType]
	Category    omit.Val[string]
}

// IsEmpty reports whether no column is set.
func (u TransactionUpdate) IsEmpty() bool {
	return !u.Description.IsValue() && !u.Amount.IsValue() && !u.Type.IsValue() && !u.Category.IsValue()
}

// ITransactionReader defines the read side of transaction storage.
type ITransactionReader interface {
	ListByOwner(ctx context.Context, userID string) ([]models.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
}

// ITransactionWriter defines transaction storage operations available inside a write transaction.
type ITransactionWriter interface {
	ITransactionReader
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	Insert(ctx context.Context, create *TransactionCreate) error
	Update(ctx context.Context, id uuid.UUID, update *TransactionUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}
