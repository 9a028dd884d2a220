package bridge

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	socketReadLimit    = 1 << 20
	socketReadTimeout  = 60 * time.Second
	socketWriteTimeout = 5 * time.Second
)

// Socket adapts a websocket connection to the bridge Conn contract. The
// host serves the upgrade; the embedded render context dials in.
type Socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewSocket wraps an upgraded websocket connection.
func NewSocket(conn *websocket.Conn) *Socket {
	conn.SetReadLimit(socketReadLimit)
	conn.SetReadDeadline(time.Now().Add(socketReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(socketReadTimeout))
	})
	return &Socket{conn: conn}
}

// Send writes one message frame. Best-effort: a write failure surfaces to
// the caller but carries no retry semantics.
func (s *Socket) Send(m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return ErrClosed
	}
	return nil
}

// Receive blocks for the next well-formed message. Malformed and non-text
// frames are dropped silently so a misbehaving peer cannot crash the loop.
func (s *Socket) Receive() (Message, error) {
	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			return Message{}, ErrClosed
		}
		s.conn.SetReadDeadline(time.Now().Add(socketReadTimeout))
		if mt != websocket.TextMessage {
			continue
		}
		m, err := Decode(data)
		if err != nil {
			continue
		}
		return m, nil
	}
}

// Close shuts the underlying websocket.
func (s *Socket) Close() error {
	return s.conn.Close()
}
