// Package bus defines the channel transport underneath publishers and
// subscribers: a named-channel fan-out that carries opaque payload bytes.
// Implementations live in subpackages; membus dispatches in-process, udpm
// speaks UDP multicast between processes.
package bus

// Handler consumes one payload delivered on a channel. Implementations are
// called from the bus's receive goroutine and must not block for long.
type Handler func(channel string, payload []byte)

// Subscription is an active channel binding held by a subscriber.
type Subscription interface {
	// Channel returns the channel name the subscription is bound to.
	Channel() string
}

// Bus moves payload bytes between named channels.
type Bus interface {
	// Publish sends payload to every current subscriber of channel.
	Publish(channel string, payload []byte) error

	// Subscribe binds h to channel until the subscription is cancelled.
	Subscribe(channel string, h Handler) (Subscription, error)

	// Unsubscribe cancels a subscription returned by Subscribe.
	Unsubscribe(sub Subscription) error

	// Close releases the bus's resources. Publish and Subscribe fail after.
	Close() error
}
