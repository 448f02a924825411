package comm

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/bus"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/schema"
)

// Callback is invoked for every successfully decoded message. args are the
// extra values bound at construction.
type Callback func(ts time.Time, channel string, msg *schema.Message, args ...any)

// Subscriber decodes inbound frames on a channel and hands them to a user
// callback. A frame that fails to decode is logged and dropped; version
// skew or a corrupt payload must never take the handling path down.
type Subscriber struct {
	Handler
	bus  bus.Bus
	cb   Callback
	args []any

	subMu sync.Mutex
	sub   bus.Subscription
}

// NewSubscriber binds cb to channel on b and starts receiving immediately.
func NewSubscriber(b bus.Bus, channel string, typ *schema.Type, cb Callback, args ...any) (*Subscriber, error) {
	if cb == nil {
		return nil, fmt.Errorf("comm: subscribe on %q: nil callback", channel)
	}
	s := &Subscriber{
		Handler: newHandler(channel, typ, "subscriber"),
		bus:     b,
		cb:      cb,
		args:    args,
	}
	sub, err := b.Subscribe(channel, s.onFrame)
	if err != nil {
		return nil, fmt.Errorf("comm: subscribe on %q: %w", channel, err)
	}
	s.sub = sub
	return s, nil
}

func (s *Subscriber) onFrame(channel string, payload []byte) {
	if !s.Active() {
		return
	}
	msg, err := s.typ.Decode(payload)
	if err != nil {
		s.log.Warn("dropping undecodable frame", zap.Error(err))
		return
	}
	s.cb(time.Now(), channel, msg, s.args...)
}

// Suspend removes the transport subscription; frames on the channel no
// longer reach the callback.
func (s *Subscriber) Suspend() {
	if !s.deactivate() {
		return
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.sub != nil {
		if err := s.bus.Unsubscribe(s.sub); err != nil {
			s.log.Warn("unsubscribe failed", zap.Error(err))
		}
		s.sub = nil
	}
	s.log.Info("subscriber suspended")
}

// Restart creates a fresh transport subscription after Suspend.
func (s *Subscriber) Restart() error {
	if !s.activate() {
		return nil
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	sub, err := s.bus.Subscribe(s.name, s.onFrame)
	if err != nil {
		s.deactivate()
		return fmt.Errorf("comm: restart subscriber on %q: %w", s.name, err)
	}
	s.sub = sub
	s.log.Info("subscriber restarted")
	return nil
}
