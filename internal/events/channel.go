package events

import (
	"sync"
	"time"
)

// DefaultBufferSize bounds the per-ticket event buffer. A pipeline run emits
// on the order of a dozen events, so overflow only happens when something is
// badly wrong; oldest events are dropped first since the stream is a UI
// convenience, not an audit log.
const DefaultBufferSize = 256

// DefaultKeepaliveInterval is how long a subscriber may sit idle before it
// receives a heartbeat, keeping intermediaries from closing the connection.
const DefaultKeepaliveInterval = 30 * time.Second

// Channel is the per-ticket progress stream: a single producer appends
// ProgressEvents, any number of subscribers read them in publish order.
// Subscribers that attach late replay the buffered events first. Once a
// terminal event has been delivered the subscription ends.
//
// Publish never blocks on a slow subscriber: each subscription drains the
// shared buffer at its own pace from a private cursor.
type Channel struct {
	mu        sync.Mutex
	buf       []ProgressEvent
	start     uint64 // absolute index of buf[0]
	capacity  int
	terminal  bool
	subs      map[*Subscription]struct{}
	keepalive time.Duration
}

// NewChannel creates a progress channel with the default buffer size and
// keepalive interval.
func NewChannel() *Channel {
	return NewChannelWithOptions(DefaultBufferSize, DefaultKeepaliveInterval)
}

// NewChannelWithOptions creates a progress channel with an explicit buffer
// capacity and keepalive interval.
func NewChannelWithOptions(capacity int, keepalive time.Duration) *Channel {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	if keepalive <= 0 {
		keepalive = DefaultKeepaliveInterval
	}
	return &Channel{
		capacity:  capacity,
		subs:      make(map[*Subscription]struct{}),
		keepalive: keepalive,
	}
}

// Publish appends an event and wakes all subscribers. Publishing after a
// terminal event is a no-op. Keepalive events are rejected; heartbeats are
// generated per subscriber, not buffered.
func (c *Channel) Publish(evt ProgressEvent) {
	if evt.Keepalive {
		return
	}

	c.mu.Lock()
	if c.terminal {
		c.mu.Unlock()
		return
	}
	if len(c.buf) == c.capacity {
		// Drop the oldest event. Late subscribers simply start further in.
		c.buf = c.buf[1:]
		c.start++
	}
	c.buf = append(c.buf, evt)
	if evt.Terminal() {
		c.terminal = true
	}
	subs := make([]*Subscription, 0, len(c.subs))
	for sub := range c.subs {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.wake()
	}
}

// Terminated reports whether the terminal event has been published.
func (c *Channel) Terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminal
}

// Subscribe attaches a new observer starting at the current buffer position.
// The returned subscription delivers events in publish order until the
// terminal event has been sent, after which its channel is closed. Call
// Close to detach early; detaching never affects the producer.
func (c *Channel) Subscribe() *Subscription {
	sub := &Subscription{
		channel: c,
		out:     make(chan ProgressEvent, 16),
		notify:  make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}

	c.mu.Lock()
	sub.cursor = c.start
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	go sub.pump()
	return sub
}

func (c *Channel) detach(sub *Subscription) {
	c.mu.Lock()
	delete(c.subs, sub)
	c.mu.Unlock()
}

// snapshot returns the events past the cursor, the new cursor position, and
// whether the last returned event is terminal.
func (c *Channel) snapshot(cursor uint64) ([]ProgressEvent, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cursor < c.start {
		cursor = c.start
	}
	end := c.start + uint64(len(c.buf))
	if cursor >= end {
		return nil, cursor, false
	}
	batch := make([]ProgressEvent, end-cursor)
	copy(batch, c.buf[cursor-c.start:])
	done := c.terminal
	return batch, end, done
}

// Subscription is one observer's ordered view of a Channel.
type Subscription struct {
	channel   *Channel
	out       chan ProgressEvent
	notify    chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	cursor    uint64
}

// Events returns the ordered event stream. The channel is closed after the
// terminal event has been delivered or the subscription is closed. Idle
// periods are filled with events marked Keepalive.
func (s *Subscription) Events() <-chan ProgressEvent {
	return s.out
}

// Close detaches the observer. The underlying pipeline keeps running.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.channel.detach(s)
	})
}

func (s *Subscription) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)

	timer := time.NewTimer(s.channel.keepalive)
	defer timer.Stop()

	for {
		batch, cursor, done := s.channel.snapshot(s.cursor)
		s.cursor = cursor

		for _, evt := range batch {
			select {
			case s.out <- evt:
			case <-s.closed:
				return
			}
		}
		if done {
			s.Close()
			return
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.channel.keepalive)

		select {
		case <-s.notify:
		case <-timer.C:
			select {
			case s.out <- newKeepalive():
			case <-s.closed:
				return
			}
		case <-s.closed:
			return
		}
	}
}
