package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"recruitment_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// Redis channels shared with the web application.
const (
	// PresenceChannel carries room online-status snapshots for the recruiter
	// dashboard live dot.
	PresenceChannel = "chat:presence"
	// AdminCallChannel carries administrative call commands from the web
	// application (currently: marking an unanswered call as missed).
	AdminCallChannel = "chat:calls:admin"
)

// PubSub definition redis pub/sub bridge to the web application
type PubSub interface {
	Publish(channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string, handler func(payload []byte))
}

// RedisPubSub implements PubSub on a redis client.
type RedisPubSub struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
		ctx:    context.Background(),
	}
}

// Publish serializes message and publishes it on channel.
func (r *RedisPubSub) Publish(channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(r.ctx, channel, data).Err()
}

// Subscribe subscribes to channel and feeds raw payloads to handler until ctx
// is cancelled.
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) {
	sub := r.client.Subscribe(r.ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(m.Payload))
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				sub.Close()
				return
			}
		}
	}()
}
