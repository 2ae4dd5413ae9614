package notify

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func waitForEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change event")
		return Event{}
	}
}

func TestForeignEventsDelivered(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	received := make(chan Event, 1)
	sub, err := Subscribe(ctx, rdb, "", "local-origin", func(ev Event) { received <- ev }, discardLogger())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	pub := NewPublisher(rdb, "")
	want := Event{Key: "CommandPrefix", PerTenant: true, Tenant: 42}
	if err := pub.Publish(ctx, want); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	got := waitForEvent(t, received)
	if got.Key != want.Key || !got.PerTenant || got.Tenant != want.Tenant {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if got.ID == "" || got.Origin != pub.Origin() {
		t.Fatalf("expected stamped id and origin, got %+v", got)
	}
}

func TestOwnEventsSkipped(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	pub := NewPublisher(rdb, "")
	received := make(chan Event, 2)
	sub, err := Subscribe(ctx, rdb, "", pub.Origin(), func(ev Event) { received <- ev }, discardLogger())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	if err := pub.Publish(ctx, Event{Key: "CommandPrefix"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	// A foreign publisher flushes behind the skipped event; receiving it
	// proves the first one was dropped, not pending.
	other := NewPublisher(rdb, "")
	if err := other.Publish(ctx, Event{Key: "PlatformToken"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	got := waitForEvent(t, received)
	if got.Key != "PlatformToken" {
		t.Fatalf("expected own event skipped, received %+v first", got)
	}
}

func TestMalformedPayloadIgnored(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	received := make(chan Event, 1)
	sub, err := Subscribe(ctx, rdb, "", "local-origin", func(ev Event) { received <- ev }, discardLogger())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	if err := rdb.Publish(ctx, DefaultChannel, "{not json").Err(); err != nil {
		t.Fatalf("raw publish failed: %v", err)
	}
	pub := NewPublisher(rdb, "")
	if err := pub.Publish(ctx, Event{Key: "CommandPrefix"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	got := waitForEvent(t, received)
	if got.Key != "CommandPrefix" {
		t.Fatalf("expected only the valid event, got %+v", got)
	}
}

func TestClosedPublisherRejectsPublish(t *testing.T) {
	rdb := newTestRedis(t)

	pub := NewPublisher(rdb, "")
	pub.Close()
	if err := pub.Publish(context.Background(), Event{Key: "CommandPrefix"}); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSubscriberCloseStopsDelivery(t *testing.T) {
	rdb := newTestRedis(t)

	sub, err := Subscribe(context.Background(), rdb, "", "local-origin", func(Event) {}, discardLogger())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	sub.Close()
	// Close waits for the delivery goroutine; a second Close must not hang.
	sub.Close()
}
