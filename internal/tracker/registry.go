package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-tracker/internal/aggregator"
	"github.com/carson-networks/finance-tracker/internal/budget"
	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/notify"
	"github.com/carson-networks/finance-tracker/internal/session"
)

type entry struct {
	mu      sync.Mutex
	refs    int
	closed  bool
	tracker *Tracker
}

// Registry owns one Tracker per signed-in user. Trackers are reference counted
// by Acquire and Release, so a user signed in from several clients shares one
// live pipeline that stops when the last session ends.
type Registry struct {
	source     Source
	store      budget.Store
	evaluator  *budget.Evaluator
	sink       notify.Sink
	logger     logrus.FieldLogger

	mu      sync.Mutex
	entries map[string]*entry
}

func NewRegistry(
	source Source,
	store budget.Store,
	evaluator *budget.Evaluator,
	sink notify.Sink,
	logger logrus.FieldLogger,
) *Registry {
	return &Registry{
		source:     source,
		store:      store,
		evaluator:  evaluator,
		sink:       sink,
		logger:     logger,
		entries:    make(map[string]*entry),
	}
}

// SessionHooks is the part of the session manager the registry follows.
type SessionHooks interface {
	OnStart(fn func(session.Session))
	OnEnd(fn func(session.Session))
}

// Follow ties tracker lifetimes to sessions: every sign-in acquires the
// user's tracker and every sign-out or expiry releases it. startTimeout bounds
// the first load done during sign-in.
func (r *Registry) Follow(sessions SessionHooks, startTimeout time.Duration) {
	sessions.OnStart(func(s session.Session) {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		if err := r.Acquire(ctx, s.Identity.UserID); err != nil {
			r.logger.WithError(err).WithField("userID", s.Identity.UserID).
				Warn("Registry.Follow.tracker start failed, retrying on next request")
		}
	})
	sessions.OnEnd(func(s session.Session) {
		r.Release(s.Identity.UserID)
	})
}

// Acquire takes a reference on the user's tracker and starts it if needed.
// The reference is held even when starting fails; Lookup retries the start.
func (r *Registry) Acquire(ctx context.Context, userID string) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}

	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		e = &entry{}
		r.entries[userID] = e
	}
	e.refs++
	r.mu.Unlock()

	_, err := r.ensure(ctx, userID, e)
	return err
}

// Release drops a reference. The tracker stops with the last reference.
func (r *Registry) Release(userID string) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		r.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.entries, userID)
	r.mu.Unlock()

	r.closeEntry(userID, e)
}

// Lookup returns the running tracker of a user holding a reference.
func (r *Registry) Lookup(ctx context.Context, userID string) (*Tracker, error) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	r.mu.Unlock()
	if !ok {
		return nil, models.ErrUnauthenticated
	}
	return r.ensure(ctx, userID, e)
}

// Len reports how many users have a tracker.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close stops every tracker.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for userID, e := range entries {
		r.closeEntry(userID, e)
	}
}

func (r *Registry) ensure(ctx context.Context, userID string, e *entry) (*Tracker, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, models.ErrUnauthenticated
	}
	if e.tracker != nil {
		return e.tracker, nil
	}

	t := newTracker(userID, r.source, r.store, r.evaluator, r.sink, r.logger)
	if err := t.start(ctx); err != nil {
		t.close()
		return nil, err
	}
	e.tracker = t

	r.logger.WithField("userID", userID).Info("Registry.ensure.tracker started")
	return t, nil
}

func (r *Registry) closeEntry(userID string, e *entry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.tracker != nil {
		e.tracker.close()
		e.tracker = nil
		r.logger.WithField("userID", userID).Info("Registry.closeEntry.tracker stopped")
	}
}

// Snapshot returns the user's current transaction snapshot.
func (r *Registry) Snapshot(ctx context.Context, userID string) (aggregator.Snapshot, error) {
	t, err := r.Lookup(ctx, userID)
	if err != nil {
		return aggregator.Snapshot{}, err
	}
	return t.Snapshot(), nil
}

// Budgets returns the user's budget map.
func (r *Registry) Budgets(ctx context.Context, userID string) (models.BudgetMap, error) {
	t, err := r.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return t.Budgets(), nil
}

// SetBudget persists one category's budget through the user's tracker.
func (r *Registry) SetBudget(ctx context.Context, userID, category string, amount decimal.Decimal) error {
	t, err := r.Lookup(ctx, userID)
	if err != nil {
		return err
	}
	return t.UpdateBudget(ctx, category, amount)
}

// Usage reports the user's spending against budget per expense category.
func (r *Registry) Usage(ctx context.Context, userID string) ([]budget.CategoryUsage, error) {
	t, err := r.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return t.Usage()
}
