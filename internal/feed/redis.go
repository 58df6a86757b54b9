package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const DefaultChannelPrefix = "homework:snapshot:"

// RedisNotifier fans change signals out across instances over Redis pub/sub.
// Each owner has its own channel, prefix+ownerID.
type RedisNotifier struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisNotifier connects to address and verifies the connection.
func NewRedisNotifier(ctx context.Context, address, password string, db int, prefix string, logger *slog.Logger) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisNotifier{client: client, prefix: prefix, logger: logger}, nil
}

func (n *RedisNotifier) Publish(ctx context.Context, ownerID string) error {
	if err := n.client.Publish(ctx, n.prefix+ownerID, ownerID).Err(); err != nil {
		return fmt.Errorf("failed to publish change for %s: %w", ownerID, err)
	}
	return nil
}

func (n *RedisNotifier) Listen(ctx context.Context, fn func(string)) error {
	pubsub := n.client.PSubscribe(ctx, n.prefix+"*")

	// Wait for the subscription confirmation so no publish after Listen returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s*: %w", n.prefix, err)
	}

	n.logger.Info("listening for snapshot changes", "pattern", n.prefix+"*")

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					n.logger.Warn("redis change channel closed")
					return
				}
				fn(msg.Payload)
			}
		}
	}()
	return nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

var _ Notifier = (*RedisNotifier)(nil)
