package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/valoron/valoron/internal/infrastructure/messaging"
)

// Publish sends message as-is to channel.
func (c *Cache) Publish(ctx context.Context, channel string, message interface{}) error {
	if channel == "" {
		return ErrCacheKeyEmpty
	}
	return c.client.Publish(ctx, channel, message).Err()
}

// Subscribe implements messaging.RedisClient. The returned channel is closed
// when ctx is done; the subscription is released at that point.
func (c *Cache) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	if len(channels) == 0 {
		return nil, errors.New("subscribe: no channels given")
	}

	ps := c.client.Subscribe(ctx, channels...)
	// Receive blocks until the subscription is confirmed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		defer ps.Close()

		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

var _ messaging.RedisClient = (*Cache)(nil)
