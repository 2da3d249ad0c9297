package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix = "portal:events:"      // Pub/Sub channel per project: portal:events:{project_id}
	NotifyQueue   = "portal:notify:queue" // List consumed by the notify worker
	DeadQueue     = "portal:notify:dead"  // Failed notifications awaiting requeue
)

// ChannelFor returns the pub/sub channel carrying a project's events.
func ChannelFor(projectID string) string {
	return channelPrefix + projectID
}

// RedisPublisher publishes live updates and enqueues notification work.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, ChannelFor(ev.ProjectID), data)
	pipe.LPush(ctx, NotifyQueue, data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe listens on the project's pub/sub channel.
func (p *RedisPublisher) Subscribe(ctx context.Context, projectID string) (<-chan Event, func(), error) {
	ps := p.client.Subscribe(ctx, ChannelFor(projectID))
	// wait for the subscription confirmation so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Event, 16)
	msgs := ps.Channel()
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { _ = ps.Close() }, nil
}
