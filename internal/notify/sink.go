package notify

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-tracker/internal/models"
)

// Sink receives budget notifications for a user.
type Sink interface {
	Notify(ctx context.Context, userID string, notifications []models.Notification) error
}

// MemorySink keeps the most recent notifications of each user until cleared.
type MemorySink struct {
	mu       sync.Mutex
	capacity int
	byUser   map[string][]models.Notification
}

func NewMemorySink(capacity int) *MemorySink {
	if capacity < 1 {
		capacity = 1
	}
	return &MemorySink{
		capacity: capacity,
		byUser:   make(map[string][]models.Notification),
	}
}

func (s *MemorySink) Notify(_ context.Context, userID string, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.byUser[userID], notifications...)
	if len(list) > s.capacity {
		list = list[len(list)-s.capacity:]
	}
	s.byUser[userID] = slices.Clone(list)
	return nil
}

// List returns the user's notifications, oldest first.
func (s *MemorySink) List(userID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.byUser[userID])
}

// Clear drops every notification of the user and returns how many were removed.
func (s *MemorySink) Clear(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := len(s.byUser[userID])
	delete(s.byUser, userID)
	return removed
}

// SuppressingSink forwards a notification only if the same category, type and
// message has not been forwarded for the user within the window.
type SuppressingSink struct {
	next Sink
	seen *cache.Cache
}

func NewSuppressingSink(next Sink, window time.Duration) *SuppressingSink {
	return &SuppressingSink{
		next: next,
		seen: cache.New(window, 2*window),
	}
}

func (s *SuppressingSink) Notify(ctx context.Context, userID string, notifications []models.Notification) error {
	fresh := make([]models.Notification, 0, len(notifications))
	for _, n := range notifications {
		key := userID + "|" + n.Category + "|" + string(n.Type) + "|" + n.Message
		if err := s.seen.Add(key, struct{}{}, cache.DefaultExpiration); err != nil {
			continue
		}
		fresh = append(fresh, n)
	}
	if len(fresh) == 0 {
		return nil
	}
	return s.next.Notify(ctx, userID, fresh)
}

// Forget drops the suppression history of the user, so the next evaluation
// is delivered in full.
func (s *SuppressingSink) Forget(userID string) {
	prefix := userID + "|"
	for key := range s.seen.Items() {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			s.seen.Delete(key)
		}
	}
}

type LogSink struct {
	logger *logrus.Logger
}

func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(_ context.Context, userID string, notifications []models.Notification) error {
	for _, n := range notifications {
		entry := s.logger.WithFields(logrus.Fields{
			"userID":   userID,
			"category": n.Category,
			"type":     n.Type,
		})
		if n.Type == models.NotificationError {
			entry.Warn("Notify.Budget.exceeded")
		} else {
			entry.Info("Notify.Budget.near limit")
		}
	}
	if s.logger.IsLevelEnabled(logrus.DebugLevel) {
		s.logger.WithField("userID", userID).Debug(spew.Sdump(notifications))
	}
	return nil
}

// Multi forwards to every sink and joins their errors.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, userID string, notifications []models.Notification) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Notify(ctx, userID, notifications); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
