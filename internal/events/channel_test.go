package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, sub *Subscription, want int) []ProgressEvent {
	t.Helper()
	var got []ProgressEvent
	deadline := time.After(2 * time.Second)
	for len(got) < want {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return got
			}
			if evt.Keepalive {
				continue
			}
			got = append(got, evt)
		case <-deadline:
			t.Fatalf("timed out after %d of %d events", len(got), want)
		}
	}
	return got
}

func TestChannel_DeliversInPublishOrder(t *testing.T) {
	ch := NewChannel()
	sub := ch.Subscribe()

	for i := 1; i <= 5; i++ {
		ch.Publish(NewProgress(fmt.Sprintf("step %d", i), i*10))
	}
	ch.Publish(NewComplete("done", "https://github.com/acme/site/pull/7"))

	got := collect(t, sub, 6)
	require.Len(t, got, 6)
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("step %d", i+1), got[i].Step)
		assert.Equal(t, (i+1)*10, got[i].Progress)
	}
	assert.True(t, got[5].Complete)
	assert.Equal(t, "https://github.com/acme/site/pull/7", got[5].PRURL)
}

func TestChannel_ProgressNeverDecreases(t *testing.T) {
	ch := NewChannel()
	sub := ch.Subscribe()

	ch.Publish(NewProgress("a", 5))
	ch.Publish(NewProgress("b", 40))
	ch.Publish(NewFailure("boom", 40, "generation failed"))

	got := collect(t, sub, 3)
	last := -1
	for _, evt := range got {
		assert.GreaterOrEqual(t, evt.Progress, last)
		last = evt.Progress
	}
}

func TestChannel_LateSubscriberReplaysBuffer(t *testing.T) {
	ch := NewChannel()
	ch.Publish(NewProgress("early", 10))
	ch.Publish(NewProgress("later", 20))

	sub := ch.Subscribe()
	got := collect(t, sub, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "early", got[0].Step)
	assert.Equal(t, "later", got[1].Step)
}

func TestChannel_SubscribeAfterTerminalStillSeesOutcome(t *testing.T) {
	ch := NewChannel()
	ch.Publish(NewProgress("working", 50))
	ch.Publish(NewComplete("done", ""))

	sub := ch.Subscribe()
	got := collect(t, sub, 2)
	require.Len(t, got, 2)
	assert.True(t, got[1].Terminal())

	// The subscription channel closes after the terminal event.
	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close after terminal event")
	}
}

func TestChannel_PublishAfterTerminalIsNoOp(t *testing.T) {
	ch := NewChannel()
	ch.Publish(NewComplete("done", ""))
	ch.Publish(NewProgress("ghost", 10))

	sub := ch.Subscribe()
	got := collect(t, sub, 1)
	require.Len(t, got, 1)
	assert.True(t, got[0].Terminal())
	assert.True(t, ch.Terminated())
}

func TestChannel_ProducerNeverBlocksOnSlowSubscriber(t *testing.T) {
	ch := NewChannelWithOptions(8, time.Minute)
	sub := ch.Subscribe()
	_ = sub // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			ch.Publish(NewProgress("flood", 1))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on an undrained subscriber")
	}
}

func TestChannel_OverflowDropsOldest(t *testing.T) {
	ch := NewChannelWithOptions(4, time.Minute)
	for i := 1; i <= 10; i++ {
		ch.Publish(NewProgress(fmt.Sprintf("step %d", i), i))
	}

	sub := ch.Subscribe()
	got := collect(t, sub, 4)
	require.Len(t, got, 4)
	// Only the newest four survive.
	assert.Equal(t, "step 7", got[0].Step)
	assert.Equal(t, "step 10", got[3].Step)
}

func TestChannel_KeepaliveWhileIdle(t *testing.T) {
	ch := NewChannelWithOptions(8, 20*time.Millisecond)
	sub := ch.Subscribe()
	defer sub.Close()

	select {
	case evt := <-sub.Events():
		assert.True(t, evt.Keepalive)
		assert.False(t, evt.Terminal())
	case <-time.After(2 * time.Second):
		t.Fatal("no keepalive on an idle stream")
	}
}

func TestChannel_CloseDetachesWithoutStoppingProducer(t *testing.T) {
	ch := NewChannel()
	sub := ch.Subscribe()
	sub.Close()

	ch.Publish(NewProgress("after close", 10))

	other := ch.Subscribe()
	got := collect(t, other, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "after close", got[0].Step)
}

func TestProgressEvent_Terminal(t *testing.T) {
	assert.False(t, NewProgress("x", 10).Terminal())
	assert.True(t, NewComplete("x", "").Terminal())
	assert.True(t, NewFailure("x", 10, "boom").Terminal())
	assert.False(t, newKeepalive().Terminal())
}
