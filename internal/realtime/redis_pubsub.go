package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "campus-events:realtime:"

// RedisPubSub fans room messages out across API instances.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis pub/sub bridge.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// Publish sends msg to the room's channel.
func (r *RedisPubSub) Publish(ctx context.Context, room string, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channelPrefix+room, body).Err()
}

// Subscribe calls handler for every message on the room's channel until cancel is called.
func (r *RedisPubSub) Subscribe(room string, handler func(Message)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, channelPrefix+room)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", room, err)
	}

	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					r.logger.Debug("dropping malformed realtime message", zap.String("room", room), zap.Error(err))
					continue
				}
				handler(msg)
			}
		}
	}()
	return cancel, nil
}
