package storage

import (
	"context"
	"encoding/json"

	"lennonwall/backend/internal/events"

	"github.com/redis/go-redis/v9"
)

// redisPublisher is the part of *redis.Client the Publisher needs.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher forwards wall events to a Redis Pub/Sub channel so other
// processes (the admin watch command, other replicas) can follow them.
type Publisher struct {
	client  redisPublisher
	channel string
}

func NewPublisher(client redisPublisher, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

// Handle publishes the event as JSON.
func (p *Publisher) Handle(ctx context.Context, e events.Event) error {
	msgBytes, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, string(msgBytes)).Err()
}

// Subscribe listens on the events channel.
func (s *Service) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return s.Redis.Subscribe(ctx, channel)
}

// DecodeEvent parses a payload written by Publisher.
func DecodeEvent(payload string) (events.Event, error) {
	var e events.Event
	err := json.Unmarshal([]byte(payload), &e)
	return e, err
}
