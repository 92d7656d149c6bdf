package local

import (
	"context"
	"sync"
	"sync/atomic"
)

// LocalMessage is an in-process pub/sub message.
type LocalMessage struct {
	Channel string
	Payload string
}

// LocalPubSub is an in-process fan-out pub/sub implementation.
// Publishing never blocks: a subscriber with a full buffer misses the message.
type LocalPubSub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *LocalMessage]struct{}
	bufSize     int
	dropped     atomic.Int64
}

// NewPubSub creates a new LocalPubSub with the given per-subscriber buffer size.
func NewPubSub(bufSize int) *LocalPubSub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &LocalPubSub{
		subscribers: make(map[string]map[chan *LocalMessage]struct{}),
		bufSize:     bufSize,
	}
}

// Publish sends a message to all subscribers of the given channel.
func (ps *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &LocalMessage{Channel: channel, Payload: message}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for ch := range ps.subscribers[channel] {
		select {
		case ch <- msg:
		default:
			ps.dropped.Add(1)
		}
	}
	return nil
}

// Dropped returns how many messages were discarded because a subscriber was full.
func (ps *LocalPubSub) Dropped() int64 { return ps.dropped.Load() }

// Subscribe returns a channel of messages for the given channels and a cancel
// function that unsubscribes and closes it. Cancel is idempotent.
func (ps *LocalPubSub) Subscribe(_ context.Context, channels ...string) (<-chan *LocalMessage, func(), error) {
	ch := make(chan *LocalMessage, ps.bufSize)

	ps.mu.Lock()
	for _, c := range channels {
		subs, ok := ps.subscribers[c]
		if !ok {
			subs = make(map[chan *LocalMessage]struct{})
			ps.subscribers[c] = subs
		}
		subs[ch] = struct{}{}
	}
	ps.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			ps.mu.Lock()
			defer ps.mu.Unlock()
			for _, c := range channels {
				delete(ps.subscribers[c], ch)
				if len(ps.subscribers[c]) == 0 {
					delete(ps.subscribers, c)
				}
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}
