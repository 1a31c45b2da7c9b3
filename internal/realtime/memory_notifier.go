package realtime

import (
	"context"
	"sync"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
)

// InMemoryNotifier delivers change signals within a single process.
// It backs local development without redis and the sync controller
// tests; semantics match RedisNotifier.
type InMemoryNotifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscriber
}

type subscriber struct {
	scope    domain.Scope
	onChange func()
}

// NewInMemoryNotifier creates an empty notifier.
func NewInMemoryNotifier() *InMemoryNotifier {
	return &InMemoryNotifier{subs: make(map[int]subscriber)}
}

// Publish invokes every subscriber whose scope covers the change.
// Delivery happens on the caller's goroutine before Publish returns.
func (n *InMemoryNotifier) Publish(ctx context.Context, change Change) error {
	n.mu.Lock()
	matched := make([]func(), 0, len(n.subs))
	for _, sub := range n.subs {
		if sub.scope.Covers(change.OwnerID) {
			matched = append(matched, sub.onChange)
		}
	}
	n.mu.Unlock()

	for _, fn := range matched {
		fn()
	}
	return nil
}

// Subscribe registers onChange for the scope. Cancel removes the
// registration; once it returns no further calls are made.
func (n *InMemoryNotifier) Subscribe(ctx context.Context, scope domain.Scope, onChange func()) (CancelFunc, error) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = subscriber{scope: scope, onChange: onChange}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
	return cancel, nil
}

// SubscriberCount reports active subscriptions, used to assert that
// deactivated views release their listeners.
func (n *InMemoryNotifier) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
