package storage

import (
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/finance-tracker/internal/storage/budget"
	"github.com/carson-networks/finance-tracker/internal/storage/transaction"
)

type Reader struct {
	Transactions transaction.ITransactionReader
	Budgets      budget.IBudgetReader
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{
		Transactions: transaction.NewReader(exec),
		Budgets:      budget.NewReader(exec),
	}
}
