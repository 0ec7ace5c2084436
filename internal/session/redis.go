package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPersister stores sessions as JSON under a key namespace.
type RedisPersister struct {
	client    *redis.Client
	namespace string
}

// NewRedisPersister constructs a persister rooted at the namespace.
func NewRedisPersister(client *redis.Client, namespace string) *RedisPersister {
	return &RedisPersister{client: client, namespace: namespace}
}

func (p *RedisPersister) key(userID string) string {
	return fmt.Sprintf("%s:%s", p.namespace, userID)
}

// Save writes the session with the given TTL.
func (p *RedisPersister) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.UserID, err)
	}
	if err := p.client.Set(ctx, p.key(s.UserID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", s.UserID, err)
	}
	return nil
}

// Load reads the session, returning nil when none is stored.
func (p *RedisPersister) Load(ctx context.Context, userID string) (*Session, error) {
	raw, err := p.client.Get(ctx, p.key(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session %s: %w", userID, err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", userID, err)
	}
	return &sess, nil
}

// Delete removes the session if present.
func (p *RedisPersister) Delete(ctx context.Context, userID string) error {
	if err := p.client.Del(ctx, p.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete session %s: %w", userID, err)
	}
	return nil
}

// RedisBroker broadcasts session events over a pub/sub channel.
type RedisBroker struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisBroker constructs a broker publishing on the given channel.
func NewRedisBroker(client *redis.Client, channel string, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{client: client, channel: channel, logger: logger}
}

// Publish sends the event to every subscribed instance.
func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	payload, err := MarshalEvent(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish session event: %w", err)
	}
	return nil
}

// Subscribe returns a channel of decoded events. Malformed messages are
// logged and skipped. The channel closes when ctx is cancelled.
func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				event, err := UnmarshalEvent([]byte(msg.Payload))
				if err != nil {
					b.logger.Warn("dropping malformed session event", zap.Error(err))
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
