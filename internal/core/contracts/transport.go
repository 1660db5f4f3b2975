package contracts

// FrameHandler receives the raw body of one inbound frame on a destination.
type FrameHandler func(body []byte)

// TransportSubscription is the cancellation handle for one live subscription.
type TransportSubscription interface {
	// Unsubscribe cancels delivery. Safe to call more than once.
	Unsubscribe()
}

// Transport owns a single STOMP-over-WebSocket connection. It knows nothing
// about chat semantics; the lifecycle manager drives it through
// activate/deactivate cycles and observes it through TransportHooks.
type Transport interface {
	// Activate opens the connection and keeps it alive with the configured
	// reconnect policy until Deactivate is called. Non-blocking.
	Activate()
	// Deactivate tears the connection down and stops reconnecting.
	// Safe to call more than once.
	Deactivate()
	// Subscribe registers a handler for a destination on the live connection.
	Subscribe(destination string, h FrameHandler) (TransportSubscription, error)
	// Publish sends a frame body to a destination on the live connection.
	Publish(destination string, body []byte) error
}

// TransportHooks are the transport's connectivity callbacks. Each callback
// carries the Transport instance that fired it so observers can discard
// callbacks from an instance they no longer reference.
type TransportHooks struct {
	OnConnect    func(t Transport)
	OnDisconnect func(t Transport, err error)
}

// TransportFactory builds a Transport for one (endpoint, token) pair.
// The lifecycle manager calls it once per authenticated session.
type TransportFactory func(endpoint, token string, hooks TransportHooks) Transport
