package budget

import (
	"context"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/finance-tracker/internal/models"
)

type Reader struct {
	exec bob.Executor
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{exec: exec}
}

func (r *Reader) Load(ctx context.Context, userID string) (models.BudgetMap, bool, error) {
	existsQuery := psql.RawQuery(
		"SELECT EXISTS (SELECT 1 FROM "+mapsTable+" WHERE user_id = ?) AS map_exists",
		userID,
	)
	exists, err := bob.One(ctx, r.exec, existsQuery, scan.StructMapper[existsRow]())
	if err != nil {
		return nil, false, err
	}

	query := psql.Select(
		sm.Columns("category", "amount"),
		sm.From(budgetsTable),
		sm.Where(psql.Quote("user_id").EQ(psql.Arg(userID))),
		sm.OrderBy(psql.Quote("category")).Asc(),
	)
	rows, err := bob.All(ctx, r.exec, query, scan.StructMapper[row]())
	if err != nil {
		return nil, false, err
	}

	budgets := make(models.BudgetMap, len(rows))
	for _, item := range rows {
		budgets[item.Category] = item.Amount
	}
	return budgets, exists.Exists, nil
}
