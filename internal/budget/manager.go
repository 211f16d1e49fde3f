package budget

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-tracker/internal/models"
)

// Store persists budget maps. LoadBudgets creates an empty map for a user
// that has none.
type Store interface {
	LoadBudgets(ctx context.Context, userID string) (models.BudgetMap, error)
	SetBudget(ctx context.Context, userID, category string, amount decimal.Decimal) error
}

// Manager mirrors the signed-in user's budget map. The store stays the source
// of truth: the mirror changes only after a write has been persisted.
type Manager struct {
	store     Store
	evaluator *Evaluator

	mu           sync.Mutex
	userID       string
	budgets      models.BudgetMap
	listeners    map[uint64]func(models.BudgetMap)
	nextListener uint64
}

func NewManager(store Store, evaluator *Evaluator) *Manager {
	return &Manager{
		store:     store,
		evaluator: evaluator,
		budgets:   models.BudgetMap{},
		listeners: make(map[uint64]func(models.BudgetMap)),
	}
}

// SetUser switches the mirror to userID and drops the previous user's budgets.
// An empty userID signs the manager out.
func (m *Manager) SetUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userID = userID
	m.budgets = models.BudgetMap{}
}

func (m *Manager) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

// Load reads the user's budgets through the store and replaces the mirror.
func (m *Manager) Load(ctx context.Context) (models.BudgetMap, error) {
	userID := m.UserID()
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}

	budgets, err := m.store.LoadBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}
	if budgets == nil {
		budgets = models.BudgetMap{}
	}

	m.mu.Lock()
	if m.userID != userID {
		m.mu.Unlock()
		return budgets.Clone(), nil
	}
	m.budgets = budgets.Clone()
	m.mu.Unlock()

	m.notify(budgets.Clone())
	return budgets.Clone(), nil
}

// Refresh re-reads the user's budgets and replaces the mirror only when the
// stored map differs from it. It reports whether the mirror changed.
func (m *Manager) Refresh(ctx context.Context) (bool, error) {
	userID := m.UserID()
	if userID == "" {
		return false, models.ErrUnauthenticated
	}

	budgets, err := m.store.LoadBudgets(ctx, userID)
	if err != nil {
		return false, err
	}
	if budgets == nil {
		budgets = models.BudgetMap{}
	}

	m.mu.Lock()
	if m.userID != userID || m.budgets.Equal(budgets) {
		m.mu.Unlock()
		return false, nil
	}
	m.budgets = budgets.Clone()
	m.mu.Unlock()

	m.notify(budgets.Clone())
	return true, nil
}

// Update persists one category's budget and, once that succeeds, reflects it
// in the mirror. Other categories are left as they are.
func (m *Manager) Update(ctx context.Context, category string, amount decimal.Decimal) error {
	userID := m.UserID()
	if userID == "" {
		return models.ErrUnauthenticated
	}
	if !models.IsBudgetCategory(category) {
		return models.ErrInvalidCategory
	}
	if amount.IsNegative() || models.CheckAmount(amount) != nil {
		return models.ErrInvalidBudget
	}

	if err := m.store.SetBudget(ctx, userID, category, amount); err != nil {
		return err
	}

	m.mu.Lock()
	if m.userID != userID {
		m.mu.Unlock()
		return nil
	}
	m.budgets[category] = amount
	budgets := m.budgets.Clone()
	m.mu.Unlock()

	m.notify(budgets)
	return nil
}

// Budgets returns a copy of the mirrored budget map.
func (m *Manager) Budgets() models.BudgetMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.budgets.Clone()
}

// Evaluate runs the evaluator over transactions and the mirrored budgets.
func (m *Manager) Evaluate(transactions []models.Transaction) ([]models.Notification, error) {
	m.mu.Lock()
	userID := m.userID
	budgets := m.budgets.Clone()
	m.mu.Unlock()

	if userID == "" {
		return nil, models.ErrUnauthenticated
	}
	return m.evaluator.Evaluate(transactions, budgets), nil
}

// Usage reports every expense category's spending against the mirrored budgets.
func (m *Manager) Usage(transactions []models.Transaction) ([]CategoryUsage, error) {
	m.mu.Lock()
	userID := m.userID
	budgets := m.budgets.Clone()
	m.mu.Unlock()

	if userID == "" {
		return nil, models.ErrUnauthenticated
	}
	return m.evaluator.Usage(transactions, budgets, models.ExpenseCategories()), nil
}

// OnChange registers fn to receive the budget map after every load or update.
func (m *Manager) OnChange(fn func(models.BudgetMap)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextListener++
	id := m.nextListener
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) notify(budgets models.BudgetMap) {
	m.mu.Lock()
	listeners := make([]func(models.BudgetMap), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(budgets.Clone())
	}
}
