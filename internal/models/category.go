package models

import "slices"

const (
	DefaultExpenseCategory = "general"
	DefaultIncomeCategory  = "other"
)

var expenseCategories = []string{
	"food",
	"transportation",
	"housing",
	"utilities",
	"entertainment",
	"healthcare",
	"education",
	"shopping",
	"general",
}

var incomeCategories = []string{
	"salary",
	"freelance",
	"investments",
	"gifts",
	"other",
}

// ExpenseCategories returns the categories an expense may be filed under.
func ExpenseCategories() []string {
	return slices.Clone(expenseCategories)
}

// IncomeCategories returns the categories an income may be filed under.
func IncomeCategories() []string {
	return slices.Clone(incomeCategories)
}

// ParseTransactionType validates a raw type string.
func ParseTransactionType(raw string) (TransactionType, error) {
	switch TransactionType(raw) {
	case TransactionTypeIncome, TransactionTypeExpense:
		return TransactionType(raw), nil
	}
	return "", ErrInvalidType
}

// NormalizeCategory resolves the category for a transaction of the given type,
// substituting the type's default when the category is blank.
func NormalizeCategory(txType TransactionType, category string) (string, error) {
	switch txType {
	case TransactionTypeExpense:
		if category == "" {
			return DefaultExpenseCategory, nil
		}
		if slices.Contains(expenseCategories, category) {
			return category, nil
		}
	case TransactionTypeIncome:
		if category == "" {
			return DefaultIncomeCategory, nil
		}
		if slices.Contains(incomeCategories, category) {
			return category, nil
		}
	default:
		return "", ErrInvalidType
	}
	return "", ErrInvalidCategory
}

// IsBudgetCategory reports whether a budget may be set for the category.
// Only expense categories carry budgets.
func IsBudgetCategory(category string) bool {
	return slices.Contains(expenseCategories, category)
}
