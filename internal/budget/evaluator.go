package budget

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-tracker/internal/models"
)

var (
	hundred          = decimal.NewFromInt(100)
	warningThreshold = decimal.NewFromInt(80)
)

type UsageStatus string

const (
	UsageNone UsageStatus = "none"
	UsageOK   UsageStatus = "ok"
	UsageNear UsageStatus = "near"
	UsageOver UsageStatus = "over"
)

// CategoryUsage is the spend-to-budget position of one category.
type CategoryUsage struct {
	Category string
	Spending decimal.Decimal
	Budget   decimal.Decimal
	// Percent is zero when no budget is set.
	Percent decimal.Decimal
	Status  UsageStatus
}

type Option func(*Evaluator)

// WithClock overrides the notification timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// WithIDGenerator overrides the notification id source.
func WithIDGenerator(newID func() string) Option {
	return func(e *Evaluator) { e.newID = newID }
}

// Evaluator compares expense spending against category budgets. It keeps no
// state between calls.
type Evaluator struct {
	currency string
	now      func() time.Time
	newID    func() string
}

func NewEvaluator(currencySymbol string, opts ...Option) *Evaluator {
	e := &Evaluator{
		currency: currencySymbol,
		now:      time.Now,
		newID: func() string {
			return uuid.Must(uuid.NewV4()).String()
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns one notification per budgeted category whose usage is at
// least 80%: an error above 100%, a warning otherwise. Categories are visited
// in ascending order.
func (e *Evaluator) Evaluate(transactions []models.Transaction, budgets models.BudgetMap) []models.Notification {
	spending := SpendingByCategory(transactions)
	now := e.now()

	var notifications []models.Notification
	for _, category := range budgets.Categories() {
		limit := budgets[category]
		if !limit.IsPositive() {
			continue
		}

		spent := spending[category]
		usage := spent.Div(limit).Mul(hundred)

		switch {
		case usage.GreaterThan(hundred):
			notifications = append(notifications, models.Notification{
				ID:       e.newID(),
				Category: category,
				Type:     models.NotificationError,
				Message: fmt.Sprintf("You've exceeded your %s budget by %s%%! (%s / %s)",
					category, usage.Sub(hundred).StringFixed(1), e.money(spent), e.money(limit)),
				Timestamp: now,
			})
		case usage.GreaterThanOrEqual(warningThreshold):
			notifications = append(notifications, models.Notification{
				ID:       e.newID(),
				Category: category,
				Type:     models.NotificationWarning,
				Message: fmt.Sprintf("You've used %s%% of your %s budget. (%s / %s)",
					usage.StringFixed(1), category, e.money(spent), e.money(limit)),
				Timestamp: now,
			})
		}
	}
	return notifications
}

// Usage reports spending against budget for each of the given categories.
func (e *Evaluator) Usage(transactions []models.Transaction, budgets models.BudgetMap, categories []string) []CategoryUsage {
	spending := SpendingByCategory(transactions)

	result := make([]CategoryUsage, 0, len(categories))
	for _, category := range categories {
		usage := CategoryUsage{
			Category: category,
			Spending: spending[category],
			Budget:   budgets[category],
			Percent:  decimal.Zero,
			Status:   UsageNone,
		}
		if usage.Budget.IsPositive() {
			usage.Percent = usage.Spending.Div(usage.Budget).Mul(hundred)
			switch {
			case usage.Percent.GreaterThan(hundred):
				usage.Status = UsageOver
			case usage.Percent.GreaterThanOrEqual(warningThreshold):
				usage.Status = UsageNear
			default:
				usage.Status = UsageOK
			}
		}
		result = append(result, usage)
	}
	return result
}

func (e *Evaluator) money(amount decimal.Decimal) string {
	return e.currency + humanize.Commaf(amount.InexactFloat64())
}

// SpendingByCategory sums expense amounts per category. Income is ignored.
func SpendingByCategory(transactions []models.Transaction) map[string]decimal.Decimal {
	spending := make(map[string]decimal.Decimal)
	for _, tx := range transactions {
		if tx.Type != models.TransactionTypeExpense {
			continue
		}
		spending[tx.Category] = spending[tx.Category].Add(tx.AmountOrZero())
	}
	return spending
}
