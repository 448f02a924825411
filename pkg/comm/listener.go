package comm

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/bus"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/schema"
)

// Listener caches the most recent frame on a channel instead of pushing it
// through a callback. Consumers poll with Received and Get.
type Listener struct {
	Handler
	bus bus.Bus

	subMu sync.Mutex
	sub   bus.Subscription

	rawMu sync.Mutex
	raw   []byte
}

// NewListener starts caching the latest message on channel.
func NewListener(b bus.Bus, channel string, typ *schema.Type) (*Listener, error) {
	l := &Listener{Handler: newHandler(channel, typ, "listener"), bus: b}
	sub, err := b.Subscribe(channel, l.onFrame)
	if err != nil {
		return nil, fmt.Errorf("comm: listen on %q: %w", channel, err)
	}
	l.sub = sub
	return l, nil
}

func (l *Listener) onFrame(_ string, payload []byte) {
	if !l.Active() {
		return
	}
	// a frame that does not decode never becomes the cached value
	if _, err := l.typ.Decode(payload); err != nil {
		l.log.Warn("dropping undecodable frame", zap.Error(err))
		return
	}
	// keep raw bytes; Get re-decodes so every caller sees an independent copy
	cp := make([]byte, len(payload))
	copy(cp, payload)
	l.rawMu.Lock()
	l.raw = cp
	l.rawMu.Unlock()
}

// Received reports whether a frame has arrived since construction or the
// last Suspend.
func (l *Listener) Received() bool {
	l.rawMu.Lock()
	defer l.rawMu.Unlock()
	return l.raw != nil
}

// Get decodes and returns the most recent frame, or nil when none has
// arrived yet.
func (l *Listener) Get() (*schema.Message, error) {
	l.rawMu.Lock()
	raw := l.raw
	l.rawMu.Unlock()
	if raw == nil {
		return nil, nil
	}
	msg, err := l.typ.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("comm: get on %q: %w", l.name, err)
	}
	return msg, nil
}

// Suspend removes the subscription and clears the cached frame.
func (l *Listener) Suspend() {
	if !l.deactivate() {
		return
	}
	l.subMu.Lock()
	if l.sub != nil {
		if err := l.bus.Unsubscribe(l.sub); err != nil {
			l.log.Warn("unsubscribe failed", zap.Error(err))
		}
		l.sub = nil
	}
	l.subMu.Unlock()

	l.rawMu.Lock()
	l.raw = nil
	l.rawMu.Unlock()
	l.log.Info("listener suspended")
}

// Restart resubscribes after Suspend.
func (l *Listener) Restart() error {
	if !l.activate() {
		return nil
	}
	l.subMu.Lock()
	defer l.subMu.Unlock()
	sub, err := l.bus.Subscribe(l.name, l.onFrame)
	if err != nil {
		l.deactivate()
		return fmt.Errorf("comm: restart listener on %q: %w", l.name, err)
	}
	l.sub = sub
	l.log.Info("listener restarted")
	return nil
}
