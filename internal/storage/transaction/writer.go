package transaction

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"

	"github.com/carson-networks/finance-tracker/internal/models"
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

// FindByIDForUpdate locks the row for the rest of the write transaction.
func (w *Writer) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return w.findOne(ctx, id, sm.ForUpdate())
}

func (w *Writer) Insert(ctx context.Context, create *TransactionCreate) error {
	query := psql.Insert(
		im.Into(tableName, "id", "user_id", "description", "amount", "type", "category"),
		im.Values(
			psql.Arg(create.ID),
			psql.Arg(create.UserID),
			psql.Arg(create.Description),
			psql.Arg(create.Amount),
			psql.Arg(string(create.Type)),
			psql.Arg(create.Category),
		),
	)
	_, err := bob.Exec(ctx, w.exec, query)
	return err
}

func (w *Writer) Update(ctx context.Context, id uuid.UUID, update *TransactionUpdate) error {
	if update == nil || update.IsEmpty() {
		return nil
	}

	queryMods := []bob.Mod[*dialect.UpdateQuery]{
		um.Table(tableName),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
	}
	if description, ok := update.Description.Get(); ok {
		queryMods = append(queryMods, um.SetCol("description").ToArg(description))
	}
	if amount, ok := update.Amount.Get(); ok {
		queryMods = append(queryMods, um.SetCol("amount").ToArg(amount))
	}
	if txType, ok := update.Type.Get(); ok {
		queryMods = append(queryMods, um.SetCol("type").ToArg(string(txType)))
	}
	if category, ok := update.Category.Get(); ok {
		queryMods = append(queryMods, um.SetCol("category").ToArg(category))
	}

	result, err := bob.Exec(ctx, w.exec, psql.Update(queryMods...))
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (w *Writer) Delete(ctx context.Context, id uuid.UUID) error {
	query := psql.Delete(
		dm.From(tableName),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	result, err := bob.Exec(ctx, w.exec, query)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireAffected(result rowsAffecter) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}
