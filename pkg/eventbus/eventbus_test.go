// SPDX-License-Identifier: BSD-3-Clause

package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/eventbus"
)

func TestPublicationOrderWithinSubscriber(t *testing.T) {
	sender, store := eventbus.NewBroadcast[int](32)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := store.Subscribe(ctx)

	go func() {
		for i := range 10 {
			sender.Publish(i)
		}
	}()

	for want := range 10 {
		select {
		case ev := <-sub:
			require.False(t, ev.Closed)
			require.Equal(t, 0, ev.Lagged)
			require.Equal(t, want, ev.Value)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", want)
		}
	}
}

func TestLaggedSubscriberObservesSkipCount(t *testing.T) {
	sender, store := eventbus.NewBroadcast[int](4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := store.Subscribe(ctx)

	for i := range 10 {
		sender.Publish(i)
	}

	ev := <-sub
	require.Equal(t, 6, ev.Lagged, "subscriber should skip the 6 oldest items beyond ring capacity")

	ev = <-sub
	require.False(t, ev.Closed)
	require.Equal(t, 0, ev.Lagged)
	require.Equal(t, 6, ev.Value, "delivery resumes with the oldest surviving item")
}

func TestSubscribeOnlySeesFutureEvents(t *testing.T) {
	sender, store := eventbus.NewBroadcast[int](32)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender.Publish(1)
	sub := store.Subscribe(ctx)
	sender.Publish(2)

	ev := <-sub
	require.Equal(t, 2, ev.Value)
}

func TestCloseSignalsSubscribers(t *testing.T) {
	sender, store := eventbus.NewBroadcast[int](32)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := store.Subscribe(ctx)
	sender.Close()

	ev := <-sub
	require.True(t, ev.Closed)

	_, ok := <-sub
	require.False(t, ok, "channel should close after the Closed event")
}

func TestDedupeSuppressesConsecutiveEquals(t *testing.T) {
	sender, store := eventbus.NewBroadcast[string](32)
	deduped := eventbus.Dedupe[string](store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := deduped.Subscribe(ctx)

	go func() {
		sender.Publish("a")
		sender.Publish("a")
		sender.Publish("b")
		sender.Publish("b")
		sender.Publish("a")
		sender.Close()
	}()

	var got []string
	for ev := range sub {
		if ev.Closed {
			break
		}
		got = append(got, ev.Value)
	}
	require.Equal(t, []string{"a", "b", "a"}, got)
}
