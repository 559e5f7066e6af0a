package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vctt94/holdem/pkg/server"
)

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes every event as JSON on the pub/sub channel
// "<prefix>:<room id>".
type RedisPublisher struct {
	client redisClient
	prefix string
}

// NewRedisPublisher connects to the redis server at url and checks it answers.
func NewRedisPublisher(ctx context.Context, url, prefix string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return &RedisPublisher{client: client, prefix: prefix}, nil
}

// Channel returns the channel events of roomID are published on.
func (p *RedisPublisher) Channel(roomID string) string {
	return p.prefix + ":" + roomID
}

func (p *RedisPublisher) Publish(ctx context.Context, ev *server.RoomEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.Channel(ev.RoomID), data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
