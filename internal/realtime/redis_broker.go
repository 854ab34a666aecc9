package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

type pubSubClient interface {
	Publish(ctx context.Context, channel string, message any) error
	Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error)
}

// RedisBroker fans events out through a Redis channel so every API instance
// delivers them to its own sockets.
type RedisBroker struct {
	client  pubSubClient
	channel string
	hub     *Hub
	logg    *logger.Logger
}

type relayMessage struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Frame json.RawMessage `json:"frame"`
}

func NewRedisBroker(client pubSubClient, channel string, hub *Hub, logg *logger.Logger) (*RedisBroker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if hub == nil {
		return nil, fmt.Errorf("hub required")
	}
	if channel == "" {
		channel = "tripgather:realtime"
	}
	return &RedisBroker{client: client, channel: channel, hub: hub, logg: logg}, nil
}

// Publish relays the event to every subscribed instance, this one included.
func (b *RedisBroker) Publish(ctx context.Context, room, event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	body, err := json.Marshal(relayMessage{Room: room, Event: event, Frame: frame})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, body); err != nil {
		return fmt.Errorf("relay %s: %w", event, err)
	}
	return nil
}

// Run consumes the relay channel until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub, err := b.client.Subscribe(ctx, b.channel)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	defer sub.Close()

	if b.logg != nil {
		b.logg.Info(b.logg.WithField(ctx, "channel", b.channel), "realtime relay subscribed")
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.dispatch(ctx, msg.Payload)
		}
	}
}

func (b *RedisBroker) dispatch(ctx context.Context, payload string) int {
	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		if b.logg != nil {
			b.logg.Error(ctx, "decode realtime relay message", err)
		}
		return 0
	}
	if msg.Room == "" || len(msg.Frame) == 0 {
		return 0
	}
	return b.hub.Deliver(msg.Room, msg.Event, msg.Frame)
}
