package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const channelPrefix = "presence:"

// ChannelFor is the Redis channel presence events of a room are published on.
func ChannelFor(room string) string {
	return channelPrefix + room
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type RedisSink struct {
	client publisher
}

func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func (s *RedisSink) Name() string {
	return "redis"
}

func (s *RedisSink) Record(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("presence redis: marshal event: %w", err)
	}
	if err := s.client.Publish(ctx, ChannelFor(ev.Room), string(payload)).Err(); err != nil {
		return fmt.Errorf("presence redis: publish: %w", err)
	}
	return nil
}
