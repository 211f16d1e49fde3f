package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-tracker/internal/models"
)

const defaultLoadTimeout = 10 * time.Second

// ErrNoOwner is returned when subscribing without an owner filter.
var ErrNoOwner = errors.New("feed: owner filter is required")

// Loader reads the full, creation-ordered document set for one owner.
type Loader interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Transaction, error)
}

// Filter selects the documents a subscription receives.
type Filter struct {
	OwnerID string
}

// Handler receives every snapshot of a subscription, one at a time and in order.
// The slice belongs to the handler.
type Handler func(snapshot []models.Transaction)

// Feed serves live, full-snapshot subscriptions over the transaction documents.
type Feed struct {
	loader      Loader
	notifier    Notifier
	logger      logrus.FieldLogger
	loadTimeout time.Duration
}

func New(loader Loader, notifier Notifier, logger logrus.FieldLogger) *Feed {
	return &Feed{
		loader:      loader,
		notifier:    notifier,
		logger:      logger,
		loadTimeout: defaultLoadTimeout,
	}
}

// Subscribe loads the first snapshot before returning, so an unreachable store
// is reported to the caller. Later snapshots follow each change signal for the
// owner. ctx bounds only the first load; the subscription lives until Unsubscribe.
func (f *Feed) Subscribe(ctx context.Context, filter Filter, handler Handler) (*Subscription, error) {
	if filter.OwnerID == "" {
		return nil, ErrNoOwner
	}

	sub := &Subscription{
		feed:    f,
		filter:  filter,
		handler: handler,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	sub.ctx, sub.cancel = context.WithCancel(context.Background())

	// Listen before the first load so a change racing it still triggers a reload.
	sub.stopListening = f.notifier.Listen(filter.OwnerID, sub.notify)

	initial, err := f.load(ctx, filter)
	if err != nil {
		sub.stopListening()
		sub.cancel()
		return nil, fmt.Errorf("%w: initial snapshot: %w", models.ErrUnavailable, err)
	}

	go sub.run(initial)

	return sub, nil
}

// Listen registers fn for the raw change signal of ownerID, for readers that
// keep their own copy of other owner data. fn must not block.
func (f *Feed) Listen(ownerID string, fn func()) (cancel func()) {
	return f.notifier.Listen(ownerID, fn)
}

func (f *Feed) load(ctx context.Context, filter Filter) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, f.loadTimeout)
	defer cancel()
	return f.loader.ListByOwner(ctx, filter.OwnerID)
}

// Subscription is a standing live query. Release it with Unsubscribe.
type Subscription struct {
	feed          *Feed
	filter        Filter
	handler       Handler
	signal        chan struct{}
	done          chan struct{}
	ctx           context.Context
	cancel        context.CancelFunc
	stopListening func()
	once          sync.Once
}

// Unsubscribe stops deliveries and waits for an in-flight delivery to return.
// It is safe to call more than once, but not from inside the handler.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.stopListening()
		s.cancel()
		<-s.done
	})
}

// Done is closed once the subscription has stopped delivering.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
		// a reload is already pending and will see this change
	}
}

func (s *Subscription) run(initial []models.Transaction) {
	defer close(s.done)

	s.handler(initial)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.signal:
		}

		snapshot, err := s.feed.load(s.ctx, s.filter)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.feed.logger.WithError(err).
				WithField("ownerID", s.filter.OwnerID).
				Error("Feed.Subscription.reload failed")
			continue
		}

		if s.ctx.Err() != nil {
			return
		}
		s.handler(snapshot)
	}
}
