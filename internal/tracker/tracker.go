package tracker

import (
	"context"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-tracker/internal/aggregator"
	"github.com/carson-networks/finance-tracker/internal/budget"
	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/notify"
)

const budgetRefreshTimeout = 10 * time.Second

// Source is the live feed a tracker reads: snapshot subscriptions for the
// transactions and the raw change signal that also covers budget writes.
type Source interface {
	aggregator.Subscriber
	Listen(ownerID string, fn func()) (cancel func())
}

// Tracker is the live pipeline of one signed-in user: the feed drives the
// aggregator, and every settled snapshot or budget change is evaluated and the
// resulting notifications handed to the sink.
type Tracker struct {
	userID     string
	source     Source
	aggregator *aggregator.Aggregator
	budgets    *budget.Manager
	sink       notify.Sink
	logger     logrus.FieldLogger

	refresh       chan struct{}
	refreshDone   chan struct{}
	cancelRefresh context.CancelFunc
	stopChanges   func()
	stopSnapshots func()
	stopBudgets   func()
}

func newTracker(
	userID string,
	source Source,
	store budget.Store,
	evaluator *budget.Evaluator,
	sink notify.Sink,
	logger logrus.FieldLogger,
) *Tracker {
	return &Tracker{
		userID:     userID,
		source:     source,
		aggregator: aggregator.New(source, logger),
		budgets:    budget.NewManager(store, evaluator),
		sink:       sink,
		logger:     logger.WithField("userID", userID),
		refresh:    make(chan struct{}, 1),
	}
}

func (t *Tracker) start(ctx context.Context) error {
	t.budgets.SetUser(t.userID)

	// Listen before the first load so a budget written meanwhile is not missed.
	t.stopChanges = t.source.Listen(t.userID, t.signalRefresh)

	if _, err := t.budgets.Load(ctx); err != nil {
		t.logger.WithError(err).Error("Tracker.start.load budgets failed")
		return err
	}

	t.stopSnapshots = t.aggregator.OnChange(func(s aggregator.Snapshot) {
		if s.Loading {
			return
		}
		t.evaluate(s.Transactions)
	})
	t.stopBudgets = t.budgets.OnChange(func(models.BudgetMap) {
		s := t.aggregator.Snapshot()
		if s.Loading {
			return
		}
		t.evaluate(s.Transactions)
	})

	refreshCtx, cancel := context.WithCancel(context.Background())
	t.cancelRefresh = cancel
	t.refreshDone = make(chan struct{})
	go t.refreshBudgets(refreshCtx)

	return t.aggregator.SetUser(ctx, t.userID)
}

func (t *Tracker) signalRefresh() {
	select {
	case t.refresh <- struct{}{}:
	default:
	}
}

// refreshBudgets keeps the budget mirror in step with writes made through
// other instances. Every change signal of the owner triggers a re-read; a
// stored map equal to the mirror changes nothing.
func (t *Tracker) refreshBudgets(ctx context.Context) {
	defer close(t.refreshDone)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.refresh:
		}

		loadCtx, cancel := context.WithTimeout(ctx, budgetRefreshTimeout)
		changed, err := t.budgets.Refresh(loadCtx)
		cancel()
		if err != nil {
			if ctx.Err() == nil {
				t.logger.WithError(err).Warn("Tracker.refreshBudgets.failed")
			}
			continue
		}
		if changed {
			t.logger.Debug("Tracker.refreshBudgets.updated")
		}
	}
}

func (t *Tracker) evaluate(transactions []models.Transaction) {
	notifications, err := t.budgets.Evaluate(transactions)
	if err != nil {
		t.logger.WithError(err).Warn("Tracker.evaluate.skipped")
		return
	}
	if len(notifications) == 0 {
		return
	}

	if logger, ok := t.logger.(*logrus.Entry); ok && logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		logger.Debug(spew.Sdump(notifications))
	}

	if err := t.sink.Notify(context.Background(), t.userID, notifications); err != nil {
		t.logger.WithError(err).Error("Tracker.evaluate.notify failed")
	}
}

func (t *Tracker) UserID() string {
	return t.userID
}

// Snapshot returns the user's current transactions and totals.
func (t *Tracker) Snapshot() aggregator.Snapshot {
	return t.aggregator.Snapshot()
}

// Budgets returns the user's budget map.
func (t *Tracker) Budgets() models.BudgetMap {
	return t.budgets.Budgets()
}

// UpdateBudget persists one category's budget and re-evaluates.
func (t *Tracker) UpdateBudget(ctx context.Context, category string, amount decimal.Decimal) error {
	return t.budgets.Update(ctx, category, amount)
}

// Usage reports every expense category's spending against its budget.
func (t *Tracker) Usage() ([]budget.CategoryUsage, error) {
	return t.budgets.Usage(t.aggregator.Snapshot().Transactions)
}

func (t *Tracker) close() {
	if t.stopChanges != nil {
		t.stopChanges()
	}
	if t.cancelRefresh != nil {
		t.cancelRefresh()
		<-t.refreshDone
	}
	if t.stopSnapshots != nil {
		t.stopSnapshots()
	}
	if t.stopBudgets != nil {
		t.stopBudgets()
	}
	t.aggregator.Close()
	t.budgets.SetUser("")
}
