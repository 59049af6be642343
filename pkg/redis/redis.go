// Package redis fans sluice change events out to other processes over
// Redis pub/sub.
//
// One process watches the database and publishes a notice for every detected
// change; any number of processes subscribe and reload their own session
// without polling the database themselves.
//
//	b := redis.NewBroadcaster(client, "sluice:config", "app")
//	adapter.OnChange(b.Listener(ctx))
//
//	sub := redis.NewSubscriber(client, "sluice:config", "app")
//	errs := sub.ReloadOn(ctx, host)
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/sluice"
)

// PublishFailed is emitted when a change notice could not be published.
var PublishFailed = capitan.NewSignal("sluice.redis.publish.failed", "Change notice could not be published to Redis")

// KeyChannel is the pub/sub channel name.
var KeyChannel = capitan.NewStringKey("channel")

// Broadcaster publishes change notices for one config source.
type Broadcaster struct {
	client  *redis.Client
	channel string
	source  string
}

// NewBroadcaster creates a Broadcaster that publishes source on channel.
func NewBroadcaster(client *redis.Client, channel, source string) *Broadcaster {
	return &Broadcaster{client: client, channel: channel, source: source}
}

// Publish sends one change notice and returns the number of subscribers
// that received it.
func (b *Broadcaster) Publish(ctx context.Context) (int64, error) {
	n, err := b.client.Publish(ctx, b.channel, b.source).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish to %s: %w", b.channel, err)
	}
	return n, nil
}

// Listener returns a change listener for Adapter.OnChange or Handle.OnChange.
// Publish failures are emitted as PublishFailed.
func (b *Broadcaster) Listener(ctx context.Context) func() {
	return func() {
		if _, err := b.Publish(ctx); err != nil {
			capitan.Emit(ctx, PublishFailed,
				KeyChannel.Field(b.channel),
				sluice.KeyError.Field(err.Error()),
			)
		}
	}
}

// Subscriber receives change notices for one config source.
type Subscriber struct {
	client  *redis.Client
	channel string
	source  string
}

// NewSubscriber creates a Subscriber for notices about source on channel.
// An empty source accepts every notice.
func NewSubscriber(client *redis.Client, channel, source string) *Subscriber {
	return &Subscriber{client: client, channel: channel, source: source}
}

// Listen blocks until ctx is done, calling fn for every matching notice.
// It returns nil when ctx ends.
func (s *Subscriber) Listen(ctx context.Context, fn func(source string)) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// Verify subscription worked
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if s.source != "" && msg.Payload != s.source {
				continue
			}
			fn(msg.Payload)
		}
	}
}

// ReloadOn subscribes in the background and reloads session on the first
// matching notice. Listening also ends if session starts reloading for any
// other reason. The returned channel receives the Listen error, if any.
func (s *Subscriber) ReloadOn(ctx context.Context, session *sluice.Session) <-chan error {
	errs := make(chan error, 1)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		errs <- s.Listen(ctx, func(string) {
			session.Reload()
			cancel()
		})
		close(errs)
	}()
	go func() {
		select {
		case <-session.Reloading():
			cancel()
		case <-ctx.Done():
		}
	}()
	return errs
}
