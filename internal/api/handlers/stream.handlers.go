package routes

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"guardplan/internal/events"
	"guardplan/internal/export"
	"guardplan/internal/surface"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamBuffer = 64
	writeWait    = 5 * time.Second
	pingPeriod   = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Stream pushes bus events to websocket clients. A connected client is the
// map surface: the first connection marks the map as ready.
type Stream struct {
	bus      *events.Emitter
	ready    *surface.Ready
	snapshot func() export.Report
	logger   *slog.Logger
	clients  atomic.Int64
}

// NewStream creates a websocket event stream over bus
func NewStream(bus *events.Emitter, ready *surface.Ready, snapshot func() export.Report, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{bus: bus, ready: ready, snapshot: snapshot, logger: logger}
}

// Clients returns the number of connected clients
func (s *Stream) Clients() int {
	return int(s.clients.Load())
}

// clientQueue buffers events for one client. When it overflows the client
// is marked stale and must be resynchronized with a snapshot.
type clientQueue struct {
	pending chan events.Event
	stale  atomic.Bool
}

func newClientQueue(size int) *clientQueue {
	return &clientQueue{pending: make(chan events.Event, size)}
}

// push enqueues without blocking, reporting whether ev was kept
func (q *clientQueue) push(ev events.Event) bool {
	select {
	case q.pending <- ev:
		return true
	default:
		q.stale.Store(true)
		return false
	}
}

// resync reports whether events were dropped since the last call. When they
// were, everything still queued is discarded since a snapshot supersedes it.
func (q *clientQueue) resync() bool {
	if !q.stale.Swap(false) {
		return false
	}
	for {
		select {
		case <-q.pending:
		default:
			return true
		}
	}
}

// Handle upgrades the request and streams events until the client leaves
func (s *Stream) Handle(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer ws.Close()

	s.clients.Add(1)
	defer s.clients.Add(-1)

	// Subscribe before the snapshot so nothing falls between the two.
	queue := newClientQueue(streamBuffer)
	id := s.bus.Subscribe(func(ev events.Event) {
		if !queue.push(ev) {
			s.logger.Warn("stream client lagging, event dropped",
				slog.String("type", string(ev.Type)), slog.Uint64("seq", ev.Seq))
		}
	})
	defer s.bus.Unsubscribe(id)

	if !s.sendSnapshot(ws) {
		return
	}
	if s.ready != nil {
		s.ready.Signal()
	}
	s.logger.Info("stream client connected", slog.String("remote", c.Request.RemoteAddr))

	// Incoming messages are ignored; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			s.logger.Info("stream client disconnected", slog.String("remote", c.Request.RemoteAddr))
			return
		case ev := <-queue.pending:
			if !s.deliver(ws, queue, ev) {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// deliver writes ev, or a fresh snapshot in its place when the client fell behind
func (s *Stream) deliver(ws jsonWriter, queue *clientQueue, ev events.Event) bool {
	if queue.resync() {
		s.logger.Info("stream client resynchronized", slog.Uint64("seq", ev.Seq))
		return s.sendSnapshot(ws)
	}
	return s.sendJSON(ws, ev)
}

func (s *Stream) sendSnapshot(ws jsonWriter) bool {
	if s.snapshot == nil {
		return true
	}
	return s.sendJSON(ws, gin.H{"type": "snapshot", "data": s.snapshot()})
}

// jsonWriter is the part of a websocket connection the stream writes through
type jsonWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v any) error
}

func (s *Stream) sendJSON(ws jsonWriter, v any) bool {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(v); err != nil {
		s.logger.Warn("websocket write failed", slog.Any("error", err))
		return false
	}
	return true
}
