package viewsync

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
	"github.com/siddhartha296/vechicle-service-portal/internal/observability"
	"github.com/siddhartha296/vechicle-service-portal/internal/realtime"
)

// ListFunc fetches the full record set for a scope.
type ListFunc func(ctx context.Context, scope domain.Scope) ([]domain.Complaint, error)

// Registry owns one controller per active scope. Controllers are
// created lazily on first view activation and torn down on explicit
// deactivation, sign-out, or shutdown.
//
// Controllers outlive the requests that activate them, so they run on
// the registry's base context, never on a per-request context: request
// contexts are recycled when the handler returns and must not be
// retained by the refresh loop or the subscription.
type Registry struct {
	base     context.Context
	list     ListFunc
	notifier realtime.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewRegistry builds an empty registry. base bounds the lifetime of
// every controller it creates.
func NewRegistry(base context.Context, list ListFunc, notifier realtime.Notifier, metrics *observability.Metrics, logger *zap.Logger) *Registry {
	return &Registry{
		base:        base,
		list:        list,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
		controllers: make(map[string]*Controller),
	}
}

// Activate returns the live controller for the scope, creating and
// activating it if the scope has no active view yet.
func (r *Registry) Activate(scope domain.Scope) (*Controller, error) {
	r.mu.Lock()
	controller, ok := r.controllers[scope.Key()]
	if !ok {
		fetch := func(ctx context.Context) ([]domain.Complaint, error) {
			return r.list(ctx, scope)
		}
		controller = NewController(scope, fetch, r.notifier, r.metrics, r.logger)
		r.controllers[scope.Key()] = controller
	}
	r.mu.Unlock()

	if err := controller.Activate(r.base); err != nil {
		r.mu.Lock()
		delete(r.controllers, scope.Key())
		r.mu.Unlock()
		return nil, err
	}
	return controller, nil
}

// Deactivate tears down the scope's controller if one is active.
func (r *Registry) Deactivate(scope domain.Scope) {
	r.mu.Lock()
	controller, ok := r.controllers[scope.Key()]
	if ok {
		delete(r.controllers, scope.Key())
	}
	r.mu.Unlock()

	if ok {
		controller.Deactivate()
	}
}

// DeactivateUser tears down every scope belonging to the user. Called
// on sign-out so no subscription outlives its session.
func (r *Registry) DeactivateUser(userID string) {
	r.mu.Lock()
	var doomed []*Controller
	for key, controller := range r.controllers {
		if controller.Scope().UserID == userID {
			doomed = append(doomed, controller)
			delete(r.controllers, key)
		}
	}
	r.mu.Unlock()

	for _, controller := range doomed {
		controller.Deactivate()
	}
}

// Shutdown deactivates everything.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	doomed := make([]*Controller, 0, len(r.controllers))
	for key, controller := range r.controllers {
		doomed = append(doomed, controller)
		delete(r.controllers, key)
	}
	r.mu.Unlock()

	for _, controller := range doomed {
		controller.Deactivate()
	}
}

// ActiveCount reports how many scopes currently hold a controller.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}
