package stompws

import (
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// stream adapts one websocket connection to the io.ReadWriteCloser the
// STOMP codec reads frames from, and reports the first transport failure
// through Done so the owning connection can start its reconnect cycle.
type stream struct {
	ws     *websocket.Conn
	reader io.Reader

	once sync.Once
	err  error
	done chan struct{}
}

func newStream(ws *websocket.Conn) *stream {
	ws.SetReadLimit(512 * 1024) // 512KB max message size
	return &stream{ws: ws, done: make(chan struct{})}
}

func (s *stream) Read(p []byte) (int, error) {
	for {
		if s.reader == nil {
			_, r, err := s.ws.NextReader()
			if err != nil {
				s.fail(err)
				return 0, err
			}
			s.reader = r
		}
		n, err := s.reader.Read(p)
		if err == io.EOF {
			// One websocket message exhausted; continue with the next.
			s.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		if err != nil {
			s.fail(err)
		}
		return n, err
	}
}

func (s *stream) Write(p []byte) (int, error) {
	_ = s.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		s.fail(err)
		return 0, err
	}
	return len(p), nil
}

func (s *stream) Close() error {
	err := s.ws.Close()
	s.fail(io.ErrClosedPipe)
	return err
}

// Done is closed after the first read or write failure.
func (s *stream) Done() <-chan struct{} { return s.done }

// Err returns the failure that closed Done, if any.
func (s *stream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

func (s *stream) fail(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}
