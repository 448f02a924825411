// Package comm provides the transport primitives of the fabric: Publisher,
// Subscriber and Listener over a channel bus, and Service over direct TCP
// with registry discovery. All four share the suspend/restart lifecycle of
// Handler.
package comm

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/schema"
)

// Handler is the common state of every transport primitive: a channel (or
// service) name, the message type bound to it, and an active flag toggled
// by Suspend and Restart. Both calls are idempotent.
type Handler struct {
	name string
	typ  *schema.Type

	mu     sync.Mutex
	active bool

	log *zap.Logger
}

func newHandler(name string, typ *schema.Type, component string) Handler {
	return Handler{
		name:   name,
		typ:    typ,
		active: true,
		log:    zap.L().Named(component).With(zap.String("channel", name)),
	}
}

// Name returns the channel or service name the handler is bound to.
func (h *Handler) Name() string { return h.name }

// MessageType returns the message type bound at construction.
func (h *Handler) MessageType() *schema.Type { return h.typ }

// Active reports whether the handler is currently processing traffic.
func (h *Handler) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// deactivate flips active off, reporting whether it was on. Callers run
// their teardown only on the true return.
func (h *Handler) deactivate() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	was := h.active
	h.active = false
	return was
}

// activate flips active on, reporting whether it was off.
func (h *Handler) activate() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	was := h.active
	h.active = true
	return !was
}
