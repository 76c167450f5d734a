package broadcast_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"worksmart/internal/platform/broadcast"
)

func recvOrFail[T any](t *testing.T, sub *broadcast.Subscription[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return sub.Recv(ctx)
}

func TestPublishFansOutToEverySubscriber(t *testing.T) {
	t.Parallel()
	b := broadcast.New[int](4)
	first := b.Subscribe()
	second := b.Subscribe()

	if reached := b.Publish(7); reached != 2 {
		t.Fatalf("expected 2 subscribers reached, got %d", reached)
	}
	for i, sub := range []*broadcast.Subscription[int]{first, second} {
		v, err := recvOrFail(t, sub)
		if err != nil || v != 7 {
			t.Fatalf("subscriber %d: got %d, %v", i, v, err)
		}
	}
}

func TestPublishWithoutSubscribersIsTolerated(t *testing.T) {
	t.Parallel()
	b := broadcast.New[int](1)
	if reached := b.Publish(1); reached != 0 {
		t.Fatalf("expected no subscribers, got %d", reached)
	}
}

func TestLateSubscriberDoesNotSeeEarlierEvents(t *testing.T) {
	t.Parallel()
	b := broadcast.New[string](4)
	b.Publish("before")
	sub := b.Subscribe()
	b.Publish("after")

	v, err := recvOrFail(t, sub)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if v != "after" {
		t.Fatalf("expected only post-subscribe event, got %q", v)
	}
}

func TestOverflowDropsOldestAndReportsLagOnce(t *testing.T) {
	t.Parallel()
	b := broadcast.New[int](2)
	sub := b.Subscribe()
	for i := 1; i <= 5; i++ {
		b.Publish(i)
	}

	_, err := recvOrFail(t, sub)
	var lagged *broadcast.LaggedError
	if !errors.As(err, &lagged) {
		t.Fatalf("expected lagged error, got %v", err)
	}
	if lagged.Skipped != 3 {
		t.Fatalf("expected 3 skipped, got %d", lagged.Skipped)
	}
	if !errors.Is(err, broadcast.ErrLagged) {
		t.Fatalf("lagged error must match ErrLagged")
	}

	for _, want := range []int{4, 5} {
		v, err := recvOrFail(t, sub)
		if err != nil || v != want {
			t.Fatalf("expected %d after lag, got %d, %v", want, v, err)
		}
	}
}

func TestRecvHonoursContextAndClose(t *testing.T) {
	t.Parallel()
	b := broadcast.New[int](1)
	sub := b.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := sub.Recv(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	sub.Close()
	if b.Subscribers() != 0 {
		t.Fatalf("closed subscription must detach")
	}
	if _, err := recvOrFail(t, sub); !errors.Is(err, broadcast.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestBroadcasterCloseDrainsThenReportsClosed(t *testing.T) {
	t.Parallel()
	b := broadcast.New[int](2)
	sub := b.Subscribe()
	b.Publish(1)
	b.Close()
	b.Publish(2)

	if v, err := recvOrFail(t, sub); err != nil || v != 1 {
		t.Fatalf("expected queued value, got %d, %v", v, err)
	}
	if _, err := recvOrFail(t, sub); !errors.Is(err, broadcast.ErrClosed) {
		t.Fatalf("expected ErrClosed after drain, got %v", err)
	}
	if _, err := recvOrFail(t, b.Subscribe()); !errors.Is(err, broadcast.ErrClosed) {
		t.Fatalf("subscribe after close must be closed, got %v", err)
	}
}
