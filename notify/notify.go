package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrClosed is returned when publishing through a closed Publisher.
var ErrClosed = errors.New("change notifier closed")

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "verikit:config-changes"

// Event describes one configuration write. Tenant is meaningful only when
// PerTenant is set; otherwise the event is about the global layer.
type Event struct {
	ID        string `json:"id"`
	Origin    string `json:"origin"`
	Key       string `json:"key"`
	PerTenant bool   `json:"per_tenant,omitempty"`
	Tenant    uint64 `json:"tenant,omitempty"`
}

// Publisher broadcasts change events on one channel. Safe for concurrent
// use. The Publisher does not own the Redis client.
type Publisher struct {
	rdb     *redis.Client
	channel string
	origin  string
	closed  atomic.Bool
}

// NewPublisher creates a Publisher with a fresh random origin id.
func NewPublisher(rdb *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
	}
}

// Origin returns this publisher's origin id. Pass it to [Subscribe] so the
// process skips its own events.
func (p *Publisher) Origin() string {
	return p.origin
}

// Publish broadcasts the event, stamping it with a fresh event id and this
// publisher's origin.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if p.closed.Load() {
		return ErrClosed
	}
	ev.ID = uuid.NewString()
	ev.Origin = p.origin
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

// Close marks the publisher closed. Later Publish calls fail with
// [ErrClosed].
func (p *Publisher) Close() {
	p.closed.Store(true)
}

// Handler consumes one foreign change event.
type Handler func(Event)

// Subscriber delivers foreign change events to a [Handler] from a
// background goroutine until closed.
type Subscriber struct {
	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

// Subscribe joins the channel and starts delivering events. Events whose
// origin matches the given origin id are dropped; so are payloads that do
// not decode.
func Subscribe(ctx context.Context, rdb *redis.Client, channel, origin string, h Handler, log *slog.Logger) (*Subscriber, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	pubsub := rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	s := &Subscriber{pubsub: pubsub}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn("dropping malformed change event", "error", err)
				continue
			}
			if ev.Origin == origin {
				continue
			}
			h(ev)
		}
	}()
	return s, nil
}

// Close leaves the channel and waits for the delivery goroutine to stop.
func (s *Subscriber) Close() {
	s.pubsub.Close()
	s.wg.Wait()
}
