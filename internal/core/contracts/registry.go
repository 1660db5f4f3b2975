package contracts

// CancelFunc cancels one registry subscription. Calling it more than once
// is a no-op.
type CancelFunc func()

// Registry multiplexes named-destination subscriptions over the single
// shared connection. Subscribing or publishing while disconnected is a
// logged no-op, never an error surfaced to the caller.
type Registry interface {
	// Subscribe registers a handler for a destination and returns its
	// cancellation handle. When not connected it performs no subscription
	// and returns an inert handle.
	Subscribe(destination string, h FrameHandler) CancelFunc
	// Publish sends a body to a destination, fire-and-forget. Dropped with
	// a log entry when not connected; there is no client-side queueing.
	Publish(destination string, body []byte)
}

// ConnectionStatus exposes the lifecycle manager's shared connected flag
// and its change feed.
type ConnectionStatus interface {
	Connected() bool
	// OnChange registers an observer of the connected flag. The returned
	// cancel detaches it.
	OnChange(fn func(connected bool)) CancelFunc
}
