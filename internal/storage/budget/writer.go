package budget

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
)

type Writer struct {
	exec bob.Executor
	Reader
}

func NewWriter(exec bob.Executor) *Writer {
	return &Writer{
		exec: exec,
		Reader: Reader{
			exec: exec,
		},
	}
}

// EnsureMap creates the user's empty budget map if it does not exist yet.
func (w *Writer) EnsureMap(ctx context.Context, userID string) error {
	query := psql.RawQuery(
		"INSERT INTO "+mapsTable+" (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING",
		userID,
	)
	_, err := bob.Exec(ctx, w.exec, query)
	return err
}

// Upsert sets one category's budget, leaving the user's other categories untouched.
func (w *Writer) Upsert(ctx context.Context, userID, category string, amount decimal.Decimal) error {
	if err := w.EnsureMap(ctx, userID); err != nil {
		return err
	}

	query := psql.RawQuery(
		"INSERT INTO "+budgetsTable+" (user_id, category, amount) VALUES (?, ?, ?) "+
			"ON CONFLICT (user_id, category) DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()",
		userID, category, amount,
	)
	_, err := bob.Exec(ctx, w.exec, query)
	return err
}
