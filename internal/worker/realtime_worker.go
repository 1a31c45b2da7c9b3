package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/siddhartha296/vechicle-service-portal/internal/events"
	"github.com/siddhartha296/vechicle-service-portal/internal/realtime"
)

// StartRealtimeBridge forwards every complaint domain event onto the
// change notifier as a coalesced "something changed" signal. The
// notifier fans out to all subscribed viewer scopes, local and remote.
func StartRealtimeBridge(dispatcher events.Dispatcher, notifier realtime.Notifier, logger *zap.Logger) {
	if dispatcher == nil || notifier == nil {
		return
	}
	forward := func(ctx context.Context, event events.Event) error {
		change := realtime.Change{
			ComplaintID: event.ComplaintID,
			OwnerID:     event.OwnerID,
		}
		if err := notifier.Publish(ctx, change); err != nil {
			logger.Warn("failed to publish change signal",
				zap.String("complaint_id", event.ComplaintID), zap.Error(err))
			return err
		}
		return nil
	}

	dispatcher.Subscribe(events.EventComplaintCreated, forward)
	dispatcher.Subscribe(events.EventComplaintStatusChanged, forward)
	dispatcher.Subscribe(events.EventComplaintNotesChanged, forward)
}
