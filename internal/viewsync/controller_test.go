package viewsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
	"github.com/siddhartha296/vechicle-service-portal/internal/observability"
	"github.com/siddhartha296/vechicle-service-portal/internal/realtime"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
	// settle gives coalesced refreshes time to fire before asserting
	// that no extra one did.
	settle = 100 * time.Millisecond
)

type fetchStub struct {
	mu      sync.Mutex
	calls   int
	records []domain.Complaint
	err     error
	gate    chan struct{}
}

func (f *fetchStub) fetch(ctx context.Context) ([]domain.Complaint, error) {
	f.mu.Lock()
	f.calls++
	records := f.records
	err := f.err
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return records, err
}

func (f *fetchStub) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fetchStub) set(records []domain.Complaint, err error) {
	f.mu.Lock()
	f.records = records
	f.err = err
	f.mu.Unlock()
}

func newTestController(scope domain.Scope, stub *fetchStub, notifier realtime.Notifier) *Controller {
	return NewController(scope, stub.fetch, notifier, observability.NewMetrics(), zap.NewNop())
}

func TestControllerActivateFetchesOnce(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	stub := &fetchStub{records: []domain.Complaint{{ID: "c1", UserID: "alice"}}}
	controller := newTestController(domain.CustomerScope("alice"), stub, notifier)

	require.NoError(t, controller.Activate(context.Background()))
	defer controller.Deactivate()

	assert.Eventually(t, func() bool {
		return controller.Snapshot().Loaded
	}, waitFor, tick)

	snapshot := controller.Snapshot()
	assert.Equal(t, StateSubscribed, snapshot.State)
	assert.NoError(t, snapshot.Err)
	require.Len(t, snapshot.View.Visible, 1)
	assert.Equal(t, "c1", snapshot.View.Visible[0].ID)

	time.Sleep(settle)
	assert.Equal(t, 1, stub.callCount())
}

func TestControllerRefetchesOnCoveredChange(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	stub := &fetchStub{}
	controller := newTestController(domain.CustomerScope("alice"), stub, notifier)

	require.NoError(t, controller.Activate(context.Background()))
	defer controller.Deactivate()
	assert.Eventually(t, func() bool { return controller.Snapshot().Loaded }, waitFor, tick)

	stub.set([]domain.Complaint{{ID: "c1", UserID: "alice", Status: domain.ComplaintStatusInProgress}}, nil)
	require.NoError(t, notifier.Publish(context.Background(), realtime.Change{ComplaintID: "c1", OwnerID: "alice"}))

	assert.Eventually(t, func() bool {
		snapshot := controller.Snapshot()
		return len(snapshot.View.Visible) == 1 &&
			snapshot.View.Visible[0].Status == domain.ComplaintStatusInProgress
	}, waitFor, tick)

	time.Sleep(settle)
	assert.Equal(t, 2, stub.callCount(), "one initial fetch plus one per change")
}

func TestControllerIgnoresOtherOwnersChanges(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	stub := &fetchStub{}
	controller := newTestController(domain.CustomerScope("alice"), stub, notifier)

	require.NoError(t, controller.Activate(context.Background()))
	defer controller.Deactivate()
	assert.Eventually(t, func() bool { return controller.Snapshot().Loaded }, waitFor, tick)

	require.NoError(t, notifier.Publish(context.Background(), realtime.Change{ComplaintID: "c9", OwnerID: "bob"}))

	time.Sleep(settle)
	assert.Equal(t, 1, stub.callCount(), "another owner's change must not trigger a re-fetch")
}

func TestControllerCoalescesBurstIntoOneRefresh(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	gate := make(chan struct{})
	stub := &fetchStub{gate: gate}
	controller := newTestController(domain.StaffScope("staff-1"), stub, notifier)

	require.NoError(t, controller.Activate(context.Background()))
	defer controller.Deactivate()

	// Initial fetch is now blocked on the gate.
	assert.Eventually(t, func() bool { return stub.callCount() == 1 }, waitFor, tick)

	for i := 0; i < 5; i++ {
		require.NoError(t, notifier.Publish(context.Background(), realtime.Change{ComplaintID: "c1", OwnerID: "alice"}))
	}
	close(gate)

	// The burst collapses into exactly one follow-up refresh.
	assert.Eventually(t, func() bool { return stub.callCount() == 2 }, waitFor, tick)
	time.Sleep(settle)
	assert.Equal(t, 2, stub.callCount())
}

func TestControllerKeepsStaleListOnFetchFailure(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	stub := &fetchStub{records: []domain.Complaint{{ID: "c1", UserID: "alice"}}}
	controller := newTestController(domain.CustomerScope("alice"), stub, notifier)

	require.NoError(t, controller.Activate(context.Background()))
	defer controller.Deactivate()
	assert.Eventually(t, func() bool { return controller.Snapshot().Loaded }, waitFor, tick)

	stub.set(nil, errors.New("connection refused"))
	require.NoError(t, notifier.Publish(context.Background(), realtime.Change{ComplaintID: "c1", OwnerID: "alice"}))

	assert.Eventually(t, func() bool { return controller.Snapshot().Err != nil }, waitFor, tick)

	snapshot := controller.Snapshot()
	require.Len(t, snapshot.View.Visible, 1, "last good list survives a failed refresh")
	assert.Equal(t, "c1", snapshot.View.Visible[0].ID)
	assert.True(t, snapshot.Loaded)

	// Recovery clears the error.
	stub.set([]domain.Complaint{{ID: "c1", UserID: "alice"}, {ID: "c2", UserID: "alice"}}, nil)
	require.NoError(t, notifier.Publish(context.Background(), realtime.Change{ComplaintID: "c2", OwnerID: "alice"}))

	assert.Eventually(t, func() bool {
		snapshot := controller.Snapshot()
		return snapshot.Err == nil && len(snapshot.View.Visible) == 2
	}, waitFor, tick)
}

func TestControllerAdoptsCachedRecordsOnFirstFailure(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	cached := []domain.Complaint{{ID: "c1", UserID: "alice"}}
	stub := &fetchStub{records: cached, err: errors.New("store down")}
	controller := newTestController(domain.CustomerScope("alice"), stub, notifier)

	require.NoError(t, controller.Activate(context.Background()))
	defer controller.Deactivate()

	assert.Eventually(t, func() bool { return controller.Snapshot().Err != nil }, waitFor, tick)

	snapshot := controller.Snapshot()
	require.Len(t, snapshot.View.Visible, 1, "cached snapshot renders even when the store is down")
	assert.False(t, snapshot.Loaded, "cached data does not count as a successful load")
}

func TestControllerDeactivateReleasesSubscription(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	stub := &fetchStub{}
	controller := newTestController(domain.CustomerScope("alice"), stub, notifier)

	require.NoError(t, controller.Activate(context.Background()))
	assert.Eventually(t, func() bool { return controller.Snapshot().Loaded }, waitFor, tick)
	require.Equal(t, 1, notifier.SubscriberCount())

	controller.Deactivate()

	assert.Equal(t, 0, notifier.SubscriberCount(), "deactivation must release the listener before returning")
	assert.Equal(t, StateIdle, controller.Snapshot().State)

	calls := stub.callCount()
	require.NoError(t, notifier.Publish(context.Background(), realtime.Change{ComplaintID: "c1", OwnerID: "alice"}))
	time.Sleep(settle)
	assert.Equal(t, calls, stub.callCount(), "no fetches after deactivation")
}

func TestControllerActivateTwiceIsNoop(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	stub := &fetchStub{}
	controller := newTestController(domain.CustomerScope("alice"), stub, notifier)

	require.NoError(t, controller.Activate(context.Background()))
	defer controller.Deactivate()
	require.NoError(t, controller.Activate(context.Background()))

	assert.Equal(t, 1, notifier.SubscriberCount())
}

func TestControllerSetFilter(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	stub := &fetchStub{records: []domain.Complaint{
		{ID: "c1", UserID: "alice", Status: domain.ComplaintStatusPending},
		{ID: "c2", UserID: "bob", Status: domain.ComplaintStatusCompleted},
	}}
	controller := newTestController(domain.StaffScope("staff-1"), stub, notifier)

	require.NoError(t, controller.Activate(context.Background()))
	defer controller.Deactivate()
	assert.Eventually(t, func() bool { return controller.Snapshot().Loaded }, waitFor, tick)

	controller.SetFilter(domain.FilterCompleted)

	snapshot := controller.Snapshot()
	require.Len(t, snapshot.View.Visible, 1)
	assert.Equal(t, "c2", snapshot.View.Visible[0].ID)
	assert.Equal(t, 2, snapshot.View.Counts.Total, "counts ignore the filter")
}

func TestRegistryReusesControllerPerScope(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	stub := &fetchStub{}
	registry := NewRegistry(context.Background(), func(ctx context.Context, scope domain.Scope) ([]domain.Complaint, error) {
		return stub.fetch(ctx)
	}, notifier, observability.NewMetrics(), zap.NewNop())
	defer registry.Shutdown()

	first, err := registry.Activate(domain.CustomerScope("alice"))
	require.NoError(t, err)
	second, err := registry.Activate(domain.CustomerScope("alice"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, registry.ActiveCount())
	assert.Equal(t, 1, notifier.SubscriberCount())
}

func TestRegistryDeactivateUserDropsAllUserScopes(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	stub := &fetchStub{}
	registry := NewRegistry(context.Background(), func(ctx context.Context, scope domain.Scope) ([]domain.Complaint, error) {
		return stub.fetch(ctx)
	}, notifier, observability.NewMetrics(), zap.NewNop())
	defer registry.Shutdown()

	_, err := registry.Activate(domain.CustomerScope("alice"))
	require.NoError(t, err)
	_, err = registry.Activate(domain.StaffScope("staff-1"))
	require.NoError(t, err)
	require.Equal(t, 2, registry.ActiveCount())

	registry.DeactivateUser("alice")

	assert.Equal(t, 1, registry.ActiveCount())
	assert.Equal(t, 1, notifier.SubscriberCount())

	registry.DeactivateUser("staff-1")

	assert.Equal(t, 0, registry.ActiveCount())
	assert.Equal(t, 0, notifier.SubscriberCount())
}

type baseCtxKey struct{}

// Controllers outlive the requests that activate them: every fetch,
// including change-triggered ones long after activation returned, must
// run on the registry's base context, never on a caller-supplied
// short-lived one.
func TestRegistryFetchesRunOnBaseContext(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	base := context.WithValue(context.Background(), baseCtxKey{}, "app")

	var mu sync.Mutex
	var seen []any
	registry := NewRegistry(base, func(ctx context.Context, scope domain.Scope) ([]domain.Complaint, error) {
		mu.Lock()
		seen = append(seen, ctx.Value(baseCtxKey{}))
		mu.Unlock()
		return nil, nil
	}, notifier, observability.NewMetrics(), zap.NewNop())
	defer registry.Shutdown()

	controller, err := registry.Activate(domain.CustomerScope("alice"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return controller.Snapshot().Loaded }, waitFor, tick)

	// A change after the activating request has ended still refreshes.
	require.NoError(t, notifier.Publish(context.Background(), realtime.Change{ComplaintID: "c-1", OwnerID: "alice"}))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 2
	}, waitFor, tick)

	mu.Lock()
	defer mu.Unlock()
	for _, value := range seen {
		assert.Equal(t, "app", value, "fetch context must be the registry's base context")
	}
}

func TestRegistryShutdownReleasesEverything(t *testing.T) {
	notifier := realtime.NewInMemoryNotifier()
	stub := &fetchStub{}
	registry := NewRegistry(context.Background(), func(ctx context.Context, scope domain.Scope) ([]domain.Complaint, error) {
		return stub.fetch(ctx)
	}, notifier, observability.NewMetrics(), zap.NewNop())

	for _, scope := range []domain.Scope{
		domain.CustomerScope("alice"),
		domain.CustomerScope("bob"),
		domain.StaffScope("staff-1"),
	} {
		_, err := registry.Activate(scope)
		require.NoError(t, err)
	}
	require.Equal(t, 3, notifier.SubscriberCount())

	registry.Shutdown()

	assert.Equal(t, 0, registry.ActiveCount())
	assert.Equal(t, 0, notifier.SubscriberCount())
}
