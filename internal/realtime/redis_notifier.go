package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
)

// RedisNotifier broadcasts change signals over a single pub/sub
// channel. Every process subscribed to the channel sees every change;
// scope filtering happens subscriber-side against the owner id, so a
// customer subscription only fires for that customer's complaints
// while a staff subscription fires for all of them.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisNotifier builds a notifier on the given client and channel.
func NewRedisNotifier(client *redis.Client, channel string, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel, logger: logger}
}

// Publish sends a change signal to every subscribed process.
func (n *RedisNotifier) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.channel, payload).Err()
}

// Subscribe registers onChange for every change visible to scope. The
// returned cancel closes the pub/sub connection and waits for the
// reader goroutine to drain, so cancellation is synchronous.
func (n *RedisNotifier) Subscribe(ctx context.Context, scope domain.Scope, onChange func()) (CancelFunc, error) {
	pubsub := n.client.Subscribe(ctx, n.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range pubsub.Channel() {
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				n.logger.Warn("malformed change payload", zap.Error(err))
				continue
			}
			if scope.Covers(change.OwnerID) {
				onChange()
			}
		}
	}()

	cancel := func() {
		_ = pubsub.Close()
		wg.Wait()
	}
	return cancel, nil
}
