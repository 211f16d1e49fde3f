package feed

import (
	"context"
	"sync"
)

// Notifier carries "the documents of this owner changed" signals from writers
// to live subscriptions.
type Notifier interface {
	Publish(ctx context.Context, ownerID string) error
	Listen(ownerID string, fn func()) (cancel func())
}

// LocalNotifier fans signals out to listeners in the same process.
type LocalNotifier struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]func()
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{
		listeners: make(map[string]map[uint64]func()),
	}
}

func (n *LocalNotifier) Publish(_ context.Context, ownerID string) error {
	n.Dispatch(ownerID)
	return nil
}

// Dispatch invokes every listener registered for ownerID. Listeners must not block.
func (n *LocalNotifier) Dispatch(ownerID string) {
	n.mu.RLock()
	fns := make([]func(), 0, len(n.listeners[ownerID]))
	for _, fn := range n.listeners[ownerID] {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

func (n *LocalNotifier) Listen(ownerID string, fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	if n.listeners[ownerID] == nil {
		n.listeners[ownerID] = make(map[uint64]func())
	}
	n.listeners[ownerID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.listeners[ownerID], id)
			if len(n.listeners[ownerID]) == 0 {
				delete(n.listeners, ownerID)
			}
		})
	}
}

// ListenerCount reports how many listeners are registered for ownerID.
func (n *LocalNotifier) ListenerCount(ownerID string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners[ownerID])
}
