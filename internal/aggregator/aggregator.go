package aggregator

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-tracker/internal/feed"
	"github.com/carson-networks/finance-tracker/internal/models"
)

// ErrDisposed is returned by SetUser after Close.
var ErrDisposed = errors.New("aggregator: disposed")

type State int

const (
	StateIdle State = iota
	StateSubscribing
	StateLive
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	case StateDisposed:
		return "disposed"
	}
	return "unknown"
}

// Subscriber is the live document feed the aggregator reads from.
type Subscriber interface {
	Subscribe(ctx context.Context, filter feed.Filter, handler feed.Handler) (*feed.Subscription, error)
}

// Snapshot is an immutable view of a user's transactions and their totals.
type Snapshot struct {
	UserID       string
	Transactions []models.Transaction
	Totals       models.Totals
	Loading      bool
}

func (s Snapshot) clone() Snapshot {
	s.Transactions = slices.Clone(s.Transactions)
	return s
}

// Aggregator keeps the current transaction set of one user and the totals
// derived from it. Every snapshot from the feed replaces the previous one.
type Aggregator struct {
	subscriber Subscriber
	logger     logrus.FieldLogger

	mu           sync.Mutex
	state        State
	generation   uint64
	subscription *feed.Subscription
	snapshot     Snapshot
	listeners    map[uint64]func(Snapshot)
	nextListener uint64
}

func New(subscriber Subscriber, logger logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		subscriber: subscriber,
		logger:     logger,
		state:      StateIdle,
		snapshot: Snapshot{
			Transactions: []models.Transaction{},
			Totals:       models.ZeroTotals(),
			Loading:      true,
		},
		listeners: make(map[uint64]func(Snapshot)),
	}
}

// SetUser switches the aggregator to userID. Any standing subscription is
// cancelled first. An empty userID publishes an empty, settled snapshot without
// touching the feed. A failed subscription also publishes an empty, settled
// snapshot and returns the error.
func (a *Aggregator) SetUser(ctx context.Context, userID string) error {
	a.mu.Lock()
	if a.state == StateDisposed {
		a.mu.Unlock()
		return ErrDisposed
	}
	a.generation++
	generation := a.generation
	previous := a.subscription
	a.subscription = nil
	if userID == "" {
		a.state = StateIdle
	} else {
		a.state = StateSubscribing
	}
	a.mu.Unlock()

	if previous != nil {
		previous.Unsubscribe()
	}

	if userID == "" {
		a.publish(generation, emptySnapshot(""))
		return nil
	}

	a.publish(generation, Snapshot{
		UserID:       userID,
		Transactions: []models.Transaction{},
		Totals:       models.ZeroTotals(),
		Loading:      true,
	})

	sub, err := a.subscriber.Subscribe(ctx, feed.Filter{OwnerID: userID}, func(docs []models.Transaction) {
		a.apply(generation, userID, docs)
	})
	if err != nil {
		a.logger.WithError(err).WithField("userID", userID).Error("Aggregator.SetUser.subscribe failed")
		a.mu.Lock()
		if a.generation == generation {
			a.state = StateIdle
		}
		a.mu.Unlock()
		a.publish(generation, emptySnapshot(userID))
		return err
	}

	a.mu.Lock()
	if a.generation != generation || a.state == StateDisposed {
		// Superseded while subscribing.
		a.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	a.subscription = sub
	a.mu.Unlock()

	return nil
}

// Snapshot returns the latest published snapshot.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot.clone()
}

func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// OnChange registers fn to receive every published snapshot. The returned
// function removes it.
func (a *Aggregator) OnChange(fn func(Snapshot)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextListener++
	id := a.nextListener
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

// Close cancels the standing subscription. The aggregator cannot be reused.
func (a *Aggregator) Close() {
	a.mu.Lock()
	if a.state == StateDisposed {
		a.mu.Unlock()
		return
	}
	a.state = StateDisposed
	a.generation++
	sub := a.subscription
	a.subscription = nil
	a.listeners = make(map[uint64]func(Snapshot))
	a.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

func (a *Aggregator) apply(generation uint64, userID string, docs []models.Transaction) {
	snapshot := Snapshot{
		UserID:       userID,
		Transactions: docs,
		Totals:       models.ComputeTotals(docs),
		Loading:      false,
	}
	if snapshot.Transactions == nil {
		snapshot.Transactions = []models.Transaction{}
	}

	a.mu.Lock()
	if a.generation == generation && a.state == StateSubscribing {
		a.state = StateLive
	}
	a.mu.Unlock()

	a.publish(generation, snapshot)
}

// publish stores the snapshot and notifies listeners unless generation is stale.
func (a *Aggregator) publish(generation uint64, snapshot Snapshot) {
	a.mu.Lock()
	if a.generation != generation {
		a.mu.Unlock()
		return
	}
	a.snapshot = snapshot
	listeners := make([]func(Snapshot), 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot.clone())
	}
}

func emptySnapshot(userID string) Snapshot {
	return Snapshot{
		UserID:       userID,
		Transactions: []models.Transaction{},
		Totals:       models.ZeroTotals(),
		Loading:      false,
	}
}
