package realtime

import (
	"context"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
)

// Change is the payload of a change notification. Subscribers get no
// guarantee beyond "something in scope changed": delivery is
// at-least-once and consumers reconcile by full re-fetch, never by
// patching.
type Change struct {
	ComplaintID string `json:"complaint_id"`
	OwnerID     string `json:"owner_id"`
}

// CancelFunc releases a subscription. It does not return until
// delivery to the subscriber has stopped, so no listener outlives its
// view.
type CancelFunc func()

// Notifier distributes coalesced change signals to scoped viewers.
type Notifier interface {
	Publish(ctx context.Context, change Change) error
	Subscribe(ctx context.Context, scope domain.Scope, onChange func()) (CancelFunc, error)
}
