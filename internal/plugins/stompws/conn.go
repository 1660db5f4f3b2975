package stompws

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"

	"chatwire/internal/core/contracts"
	"chatwire/internal/core/domain"
	"chatwire/pkg/logging"
)

type Config struct {
	Endpoint       string
	Token          string
	ReconnectDelay time.Duration
	HeartbeatSend  time.Duration
	HeartbeatRecv  time.Duration
}

// Conn is the Transport implementation: one STOMP session over one
// websocket, redialed with a fixed delay until Deactivate. Connectivity
// transitions are reported through the hooks with the Conn itself so the
// lifecycle manager can ignore callbacks from an instance it discarded.
type Conn struct {
	cfg   Config
	hooks contracts.TransportHooks
	log   *slog.Logger

	mu      sync.Mutex
	st      *stomp.Conn
	started bool

	closeOnce sync.Once
	done      chan struct{}
}

func New(log *slog.Logger, cfg Config, hooks contracts.TransportHooks) *Conn {
	return &Conn{
		cfg:   cfg,
		hooks: hooks,
		log:   log,
		done:  make(chan struct{}),
	}
}

func (c *Conn) Activate() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()
	go c.run()
}

func (c *Conn) Deactivate() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Conn) run() {
	for {
		select {
		case <-c.done:
			return
		default:
		}

		st, s, err := c.dial()
		if err != nil {
			c.log.Warn("transport - connect - dial failed",
				logging.Endpoint(c.cfg.Endpoint), logging.Err(err))
			if !c.backoff() {
				return
			}
			continue
		}

		c.setCurrent(st)
		c.log.Info("transport - connect - connection established",
			logging.Endpoint(c.cfg.Endpoint))
		if c.hooks.OnConnect != nil {
			c.hooks.OnConnect(c)
		}

		select {
		case <-s.Done():
			c.setCurrent(nil)
			_ = st.Disconnect()
			c.log.Warn("transport - monitor - connection lost", logging.Err(s.Err()))
			if c.hooks.OnDisconnect != nil {
				c.hooks.OnDisconnect(c, s.Err())
			}
			if !c.backoff() {
				return
			}
		case <-c.done:
			c.setCurrent(nil)
			_ = st.Disconnect()
			_ = s.Close()
			if c.hooks.OnDisconnect != nil {
				c.hooks.OnDisconnect(c, nil)
			}
			return
		}
	}
}

func (c *Conn) dial() (*stomp.Conn, *stream, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.Token)
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{"v12.stomp", "v11.stomp", "v10.stomp"},
	}
	ws, _, err := dialer.Dial(c.cfg.Endpoint, header)
	if err != nil {
		return nil, nil, err
	}
	s := newStream(ws)
	st, err := stomp.Connect(s,
		stomp.ConnOpt.HeartBeat(c.cfg.HeartbeatSend, c.cfg.HeartbeatRecv),
		stomp.ConnOpt.Header("Authorization", "Bearer "+c.cfg.Token),
	)
	if err != nil {
		_ = ws.Close()
		return nil, nil, err
	}
	return st, s, nil
}

// backoff waits out the fixed reconnect delay; false means Deactivate won.
func (c *Conn) backoff() bool {
	select {
	case <-c.done:
		return false
	case <-time.After(c.cfg.ReconnectDelay):
		return true
	}
}

func (c *Conn) setCurrent(st *stomp.Conn) {
	c.mu.Lock()
	c.st = st
	c.mu.Unlock()
}

func (c *Conn) current() *stomp.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

func (c *Conn) Subscribe(destination string, h contracts.FrameHandler) (contracts.TransportSubscription, error) {
	st := c.current()
	if st == nil {
		return nil, domain.ErrNotConnected
	}
	sub, err := st.Subscribe(destination, stomp.AckAuto)
	if err != nil {
		return nil, err
	}
	ts := &transportSub{sub: sub, stop: make(chan struct{})}
	go ts.pump(c.log, destination, h)
	return ts, nil
}

func (c *Conn) Publish(destination string, body []byte) error {
	st := c.current()
	if st == nil {
		return domain.ErrNotConnected
	}
	return st.Send(destination, "application/json", body)
}

type transportSub struct {
	sub  *stomp.Subscription
	once sync.Once
	stop chan struct{}
}

func (t *transportSub) pump(log *slog.Logger, destination string, h contracts.FrameHandler) {
	for {
		select {
		case msg, ok := <-t.sub.C:
			if !ok {
				// Channel closes when the broker or the connection drops
				// the subscription.
				return
			}
			if msg.Err != nil {
				log.Warn("transport - subscription - frame error",
					logging.Destination(destination), logging.Err(msg.Err))
				continue
			}
			h(msg.Body)
		case <-t.stop:
			return
		}
	}
}

// Unsubscribe cancels delivery. Idempotent.
func (t *transportSub) Unsubscribe() {
	t.once.Do(func() {
		close(t.stop)
		_ = t.sub.Unsubscribe()
	})
}
