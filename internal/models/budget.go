package models

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetMap maps an expense category to its spending limit. A missing entry
// means no budget is set for that category.
type BudgetMap map[string]decimal.Decimal

// Clone returns an independent copy of the map.
func (b BudgetMap) Clone() BudgetMap {
	if b == nil {
		return BudgetMap{}
	}
	return maps.Clone(b)
}

// Equal reports whether both maps hold the same categories with equal amounts.
func (b BudgetMap) Equal(other BudgetMap) bool {
	return maps.EqualFunc(b, other, decimal.Decimal.Equal)
}

// Categories returns the map's categories in ascending order.
func (b BudgetMap) Categories() []string {
	return slices.Sorted(maps.Keys(b))
}

type NotificationType string

const (
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is a budget alert raised for one category.
type Notification struct {
	ID        string
	Category  string
	Type      NotificationType
	Message   string
	Timestamp time.Time
}
