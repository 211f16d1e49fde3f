package models

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a transaction as money in or money out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction is a single recorded money movement owned by one user.
// Amount is invalid (Valid == false) when the stored value was missing or
// could not be read as a number; such records contribute zero to totals.
type Transaction struct {
	ID          uuid.UUID
	UserID      string
	Description string
	Amount      decimal.NullDecimal
	Type        TransactionType
	Category    string
	CreatedAt   *time.Time
}

// AmountOrZero returns the numeric amount, or zero for a missing amount.
func (t Transaction) AmountOrZero() decimal.Decimal {
	if !t.Amount.Valid {
		return decimal.Zero
	}
	return t.Amount.Decimal
}

// Totals holds the derived balance figures over a set of transactions.
type Totals struct {
	Balance decimal.Decimal
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// ZeroTotals returns totals with every figure set to zero.
func ZeroTotals() Totals {
	return Totals{
		Balance: decimal.Zero,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
}

// ComputeTotals folds transactions into income, expense and balance.
// Types other than income and expense are ignored.
func ComputeTotals(transactions []Transaction) Totals {
	totals := ZeroTotals()
	for _, tx := range transactions {
		switch tx.Type {
		case TransactionTypeIncome:
			totals.Income = totals.Income.Add(tx.AmountOrZero())
		case TransactionTypeExpense:
			totals.Expense = totals.Expense.Add(tx.AmountOrZero())
		}
	}
	totals.Balance = totals.Income.Sub(totals.Expense)
	return totals
}

// AmountPlaces is the number of decimal places amounts are stored with.
const AmountPlaces = 2

// MaxAmount is the exclusive upper bound of a storable amount (NUMERIC(18, 2)).
var MaxAmount = decimal.New(1, 16)

// CheckAmount reports whether amount can be stored without rounding or
// overflow. Negative amounts are left to the caller.
func CheckAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(AmountPlaces)) {
		return ErrInvalidAmount
	}
	if amount.Abs().GreaterThanOrEqual(MaxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// ParseAmount reads a user supplied amount. Blank input, non-numeric text and
// values that do not fit the stored precision are rejected with ErrInvalidAmount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := CheckAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// NewTransaction is the input for recording a transaction.
type NewTransaction struct {
	Description string
	Amount      decimal.Decimal
	Type        TransactionType
	Category    string
}

// TransactionPatch carries the fields of a partial update. Nil fields are left untouched.
type TransactionPatch struct {
	Description *string
	Amount      *decimal.Decimal
	Type        *TransactionType
	Category    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Type == nil && p.Category == nil
}
