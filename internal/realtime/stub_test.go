package realtime

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

type stubPubSub struct{}

func (stubPubSub) Publish(context.Context, string, any) error { return nil }

func (stubPubSub) Subscribe(context.Context, ...string) (*goredis.PubSub, error) { return nil, nil }

type recordingPubSub struct {
	channel   string
	published [][]byte
}

func (r *recordingPubSub) Publish(_ context.Context, channel string, message any) error {
	r.channel = channel
	r.published = append(r.published, message.([]byte))
	return nil
}

func (r *recordingPubSub) Subscribe(context.Context, ...string) (*goredis.PubSub, error) {
	return nil, nil
}
