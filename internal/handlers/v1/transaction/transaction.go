package transaction

import (
	"time"

	"github.com/carson-networks/finance-tracker/internal/models"
)

// Transaction is the API response model for a transaction.
// It is used only for responses, not for request bodies.
type Transaction struct {
	ID          string `json:"id" doc:"Transaction UUID"`
	Description string `json:"description" doc:"What the money was for"`
	Amount      string `json:"amount" doc:"Decimal amount, zero when the stored value is missing"`
	Type        string `json:"type" enum:"income,expense" doc:"Transaction type"`
	Category    string `json:"category" doc:"Category name"`
	CreatedAt   string `json:"createdAt,omitempty" doc:"RFC3339 creation time"`
}

func toTransaction(tx models.Transaction) Transaction {
	out := Transaction{
		ID:          tx.ID.String(),
		Description: tx.Description,
		Amount:      tx.AmountOrZero().StringFixed(2),
		Type:        string(tx.Type),
		Category:    tx.Category,
	}
	if tx.CreatedAt != nil {
		out.CreatedAt = tx.CreatedAt.Format(time.RFC3339)
	}
	return out
}
