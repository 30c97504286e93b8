package ws

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"voxbridge/internal/build"
)

const writeTimeout = 5 * time.Second

// Handler receives the lifecycle of the one game connection.
type Handler interface {
	Open(ctx context.Context, out build.Sender) error
	HandleMessage(frame []byte)
	Close(code int, reason string)
	Error(err error)
}

// Server accepts exactly one game connection. Later upgrade attempts are
// refused with 409 Conflict.
type Server struct {
	h          Handler
	log        *log.Logger
	outboxSize int

	upgrader websocket.Upgrader

	claimed  atomic.Bool
	done     chan struct{}
	doneOnce sync.Once

	mu       sync.Mutex
	conn     *websocket.Conn
	shutdown bool
}

func NewServer(h Handler, outboxSize int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		h:          h,
		log:        logger,
		outboxSize: outboxSize,
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // the game client sends no Origin
		},
	}
}

// Done is closed once the accepted connection has ended.
func (s *Server) Done() <-chan struct{} { return s.done }

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.claimed.CompareAndSwap(false, true) {
			http.Error(rw, "a game session is already connected", http.StatusConflict)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.mu.Lock()
			if !s.shutdown {
				s.claimed.Store(false)
			}
			s.mu.Unlock()
			s.log.Printf("upgrade from %s: %v", r.RemoteAddr, err)
			return
		}
		defer s.doneOnce.Do(func() { close(s.done) })
		defer conn.Close()

		s.mu.Lock()
		if s.shutdown {
			s.mu.Unlock()
			return
		}
		s.conn = conn
		s.mu.Unlock()

		s.log.Printf("game connected from %s", r.RemoteAddr)
		s.serve(conn)
	}
}

// Close ends the active session with a going-away close frame. Further
// connections are refused.
func (s *Server) Close() {
	s.claimed.Store(true)
	s.mu.Lock()
	s.shutdown = true
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		s.doneOnce.Do(func() { close(s.done) })
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "bridge shutting down"), time.Now().Add(time.Second))
	_ = conn.Close()
}

func (s *Server) serve(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := NewOutbox(s.outboxSize)
	defer out.Close()

	// Writer goroutine.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case b := <-out.ch:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					s.log.Printf("write: %v", err)
					out.Close()
					cancel()
					_ = conn.Close()
					return
				}
			}
		}
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	if err := s.h.Open(ctx, out); err != nil {
		s.h.Error(err)
		s.h.Close(websocket.CloseInternalServerErr, err.Error())
		return
	}

	// Reader loop. The game may stay silent for a long time so there is no
	// read deadline.
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				s.h.Close(ce.Code, ce.Text)
			} else {
				s.h.Error(err)
				s.h.Close(websocket.CloseAbnormalClosure, err.Error())
			}
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		s.h.HandleMessage(msg)
	}
	out.Close()
	cancel()
}
