package broker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// sendBufferSize is the per-socket outbound buffer. It absorbs bursts
	// without blocking the relaying side.
	sendBufferSize = 256

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 512 * 1024
)

// socket is an owned handle inside the registry's entry. It is never passed
// around independently: after supersession or disconnect the registry drops
// its reference and the pumps wind the connection down.
type socket struct {
	conn   *websocket.Conn
	role   string
	token  string
	broker *Broker

	send chan []byte
	done chan struct{}
	once sync.Once

	// limiter caps inbound relay traffic per socket; excess is dropped
	// without closing the connection.
	limiter *rate.Limiter
}

func newSocket(conn *websocket.Conn, role, token string, b *Broker) *socket {
	return &socket{
		conn:    conn,
		role:    role,
		token:   token,
		broker:  b,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(200), 50),
	}
}

// close signals shutdown exactly once. Safe to call from any goroutine; only
// the done channel is closed, never send, to avoid racing in-flight enqueues.
func (s *socket) close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// enqueue hands raw bytes to the write pump in FIFO order. It blocks while
// the buffer is full; the write pump's deadlines guarantee the buffer drains
// or the socket dies, so this cannot block forever.
func (s *socket) enqueue(data []byte) {
	select {
	case <-s.done:
	case s.send <- data:
	}
}

// writePump serializes all writes to the connection and keeps it alive with
// periodic pings.
func (s *socket) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads inbound messages and feeds them to the relay. It is also how
// disconnection is detected: when the read fails, the socket's slot is
// released and the peer notified.
func (s *socket) readPump() {
	defer func() {
		s.broker.release(s)
		s.close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				slog.Debug("socket read error", "role", s.role, "err", err)
			}
			return
		}
		if !s.limiter.Allow() {
			slog.Warn("dropping relay message over rate limit", "role", s.role)
			continue
		}
		s.broker.relay(s, data)
	}
}
