package storage

import (
	"context"

	"github.com/stephenafamo/bob"

	"github.com/carson-networks/finance-tracker/internal/storage/budget"
	"github.com/carson-networks/finance-tracker/internal/storage/transaction"
)

// Finisher ends a write transaction.
type Finisher interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Tx is the transaction handle a Writer runs on. bob.Tx satisfies it.
type Tx interface {
	bob.Executor
	Finisher
}

type Writer struct {
	tx           Finisher
	Transactions transaction.ITransactionWriter
	Budgets      budget.IBudgetWriter
}

func NewWriter(tx Tx) *Writer {
	return NewWriterFromParts(tx, transaction.NewWriter(tx), budget.NewWriter(tx))
}

// NewWriterFromParts assembles a Writer from already built table writers.
func NewWriterFromParts(tx Finisher, transactions transaction.ITransactionWriter, budgets budget.IBudgetWriter) *Writer {
	return &Writer{
		tx:           tx,
		Transactions: transactions,
		Budgets:      budgets,
	}
}

func (w *Writer) Commit(ctx context.Context) error {
	return w.tx.Commit(ctx)
}

func (w *Writer) Rollback(ctx context.Context) error {
	return w.tx.Rollback(ctx)
}
