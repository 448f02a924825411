package comm

import (
	"fmt"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/bus"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/schema"
)

// Publisher encodes messages of one type and writes them to a channel.
type Publisher struct {
	Handler
	bus bus.Bus
}

// NewPublisher binds a publisher to channel on b, sending messages of typ.
func NewPublisher(b bus.Bus, channel string, typ *schema.Type) *Publisher {
	return &Publisher{Handler: newHandler(channel, typ, "publisher"), bus: b}
}

// Publish encodes m and writes it to the channel. Publishing a message of a
// different type than the one bound at construction is a programming error
// and fails immediately. A suspended publisher drops the message with a
// warning instead of failing.
func (p *Publisher) Publish(m *schema.Message) error {
	if m == nil {
		return fmt.Errorf("comm: publish on %q: nil message", p.name)
	}
	if m.Type() != p.typ {
		return fmt.Errorf("comm: publish on %q: message type %s does not match declared type %s",
			p.name, m.Type().Qualified(), p.typ.Qualified())
	}
	if !p.Active() {
		p.log.Warn("publish on suspended handler dropped")
		return nil
	}
	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("comm: publish on %q: %w", p.name, err)
	}
	return p.bus.Publish(p.name, data)
}

// Suspend stops the publisher; messages are dropped until Restart.
func (p *Publisher) Suspend() {
	if p.deactivate() {
		p.log.Info("publisher suspended")
	}
}

// Restart resumes publishing after Suspend.
func (p *Publisher) Restart() {
	if p.activate() {
		p.log.Info("publisher restarted")
	}
}
