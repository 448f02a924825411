// Package membus is an in-process bus. Publish dispatches synchronously to
// every handler on the channel; it backs single-process deployments and
// tests.
package membus

import (
	"errors"
	"sync"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/bus"
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("membus: closed")

type subscription struct {
	channel string
	handler bus.Handler
}

func (s *subscription) Channel() string { return s.channel }

// Bus implements bus.Bus with an in-memory channel table.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]*subscription
	closed bool
}

// New creates an empty in-process bus.
func New() *Bus { return &Bus{subs: make(map[string][]*subscription)} }

func (b *Bus) Publish(channel string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	targets := append([]*subscription(nil), b.subs[channel]...)
	b.mu.RUnlock()

	for _, s := range targets {
		s.handler(channel, payload)
	}
	return nil
}

func (b *Bus) Subscribe(channel string, h bus.Handler) (bus.Subscription, error) {
	if h == nil {
		return nil, errors.New("membus: nil handler")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	s := &subscription{channel: channel, handler: h}
	b.subs[channel] = append(b.subs[channel], s)
	return s, nil
}

func (b *Bus) Unsubscribe(sub bus.Subscription) error {
	s, ok := sub.(*subscription)
	if !ok {
		return errors.New("membus: foreign subscription")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[s.channel]
	for i, cand := range list {
		if cand == s {
			b.subs[s.channel] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errors.New("membus: subscription not found")
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string][]*subscription)
	return nil
}
