package budget

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-tracker/internal/models"
)

const (
	mapsTable    = "budget_maps"
	budgetsTable = "budgets"
)

type row struct {
	Category string          `db:"category"`
	Amount   decimal.Decimal `db:"amount"`
}

type existsRow struct {
	Exists bool `db:"map_exists"`
}

// IBudgetReader defines the read side of budget storage.
type IBudgetReader interface {
	// Load returns the user's budgets and whether a budget map exists for the user.
	Load(ctx context.Context, userID string) (models.BudgetMap, bool, error)
}

// IBudgetWriter defines budget storage operations available inside a write transaction.
type IBudgetWriter interface {
	IBudgetReader
	EnsureMap(ctx context.Context, userID string) error
	Upsert(ctx context.Context, userID, category string, amount decimal.Decimal) error
}
