package viewsync

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
	"github.com/siddhartha296/vechicle-service-portal/internal/observability"
	"github.com/siddhartha296/vechicle-service-portal/internal/realtime"
	"github.com/siddhartha296/vechicle-service-portal/internal/view"
)

// State tracks the controller lifecycle for one active view.
type State string

const (
	StateIdle       State = "idle"
	StateSubscribed State = "subscribed"
	StateRefreshing State = "refreshing"
)

// Fetcher re-fetches the full record set for the controller's scope.
type Fetcher func(ctx context.Context) ([]domain.Complaint, error)

// Controller keeps one viewer's scoped view consistent. On activation
// it opens a scope-filtered subscription and fetches once; every
// change signal triggers a full re-fetch. Refreshes are serialized:
// signals arriving during an in-flight refresh coalesce into exactly
// one follow-up refresh, never an unbounded queue. A failed refresh
// keeps the previously fetched list (stale-but-available) and records
// the error for the presentation layer.
type Controller struct {
	scope    domain.Scope
	fetch    Fetcher
	notifier realtime.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	state   State
	filter  domain.StatusFilter
	records []domain.Complaint
	loaded  bool
	lastErr error

	kick      chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	cancelSub realtime.CancelFunc
}

// Snapshot is the view-facing read of a controller.
type Snapshot struct {
	View    view.View
	State   State
	Loaded  bool
	Loading bool
	Err     error
}

// NewController builds an idle controller for the scope.
func NewController(scope domain.Scope, fetch Fetcher, notifier realtime.Notifier, metrics *observability.Metrics, logger *zap.Logger) *Controller {
	return &Controller{
		scope:    scope,
		fetch:    fetch,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.With(zap.String("scope", scope.Key())),
		state:    StateIdle,
		filter:   domain.FilterAll,
		kick:     make(chan struct{}, 1),
	}
}

// Scope returns the controller's scope.
func (c *Controller) Scope() domain.Scope {
	return c.scope
}

// Activate opens the subscription and performs the initial fetch. ctx
// is retained by the refresh loop and must outlive the activation; it
// is the owning registry's base context, never a request context.
// Activating an already active controller is a no-op. The lock is
// held across Subscribe so a concurrent Deactivate cannot interleave
// with a half-opened subscription.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return nil
	}

	cancel, err := c.notifier.Subscribe(ctx, c.scope, c.requestRefresh)
	if err != nil {
		return err
	}

	c.cancelSub = cancel
	c.done = make(chan struct{})
	c.state = StateSubscribed
	c.wg.Add(1)
	go c.run(ctx, c.done)

	c.requestRefresh()
	return nil
}

// Deactivate cancels the subscription and stops the refresh loop. It
// returns only after both are released; no listener survives it.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	cancel := c.cancelSub
	c.cancelSub = nil
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	close(done)
	c.wg.Wait()
}

// SetFilter changes the active status filter. The filter narrows the
// visible list only; aggregate counts keep covering the whole scope.
func (c *Controller) SetFilter(filter domain.StatusFilter) {
	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()
}

// Snapshot projects the current record set through the view builder.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	records := make([]domain.Complaint, len(c.records))
	copy(records, c.records)
	filter := c.filter
	state := c.state
	loaded := c.loaded
	lastErr := c.lastErr
	c.mu.Unlock()

	return Snapshot{
		View:    view.Build(records, c.scope, filter),
		State:   state,
		Loaded:  loaded,
		Loading: state == StateRefreshing,
		Err:     lastErr,
	}
}

// requestRefresh queues exactly one pending refresh. The capacity-one
// channel coalesces bursts: a signal landing while a refresh is in
// flight schedules one follow-up, further signals are dropped.
func (c *Controller) requestRefresh() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

func (c *Controller) run(ctx context.Context, done chan struct{}) {
	defer c.wg.Done()
	for {
		select {
		case <-done:
			return
		case <-c.kick:
			c.refresh(ctx)
		}
	}
}

func (c *Controller) refresh(ctx context.Context) {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	c.state = StateRefreshing
	c.mu.Unlock()

	records, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		c.state = StateSubscribed
	}
	if err != nil {
		// Keep the stale list; the viewer sees the last good state
		// plus the error flag. A fetcher may return a cached snapshot
		// alongside its error, which seeds a view that has nothing
		// rendered yet.
		c.lastErr = err
		if !c.loaded && records != nil {
			c.records = records
		}
		c.metrics.RecordRefresh(c.scope.Key(), false)
		c.logger.Warn("refresh failed, keeping last known list", zap.Error(err))
		return
	}
	c.records = records
	c.loaded = true
	c.lastErr = nil
	c.metrics.RecordRefresh(c.scope.Key(), true)
}
