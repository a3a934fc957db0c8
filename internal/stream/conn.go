package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/stockwatch/internal/metrics"
)

// ClientMsg is a subscription request sent by a client.
type ClientMsg struct {
	Type   string   `json:"type"` // sub or unsub
	Topics []string `json:"topics"`
}

// Conn is one websocket client with a latest-only outbox.
type Conn struct {
	ws     *websocket.Conn
	hub    *Hub
	mu     sync.Mutex
	latest map[string][]byte // topic -> pending payload
	order  []string          // pending topics in offer order
	notify chan struct{}     // buffered 1: coalesced wake-ups
	closed atomic.Bool
}

func newConn(h *Hub, ws *websocket.Conn) *Conn {
	return &Conn{
		ws:     ws,
		hub:    h,
		latest: make(map[string][]byte),
		notify: make(chan struct{}, 1),
	}
}

// Offer replaces the pending payload for topic. It never blocks.
func (c *Conn) Offer(topic string, payload []byte) bool {
	if c.closed.Load() {
		return false
	}

	c.mu.Lock()
	if _, ok := c.latest[topic]; !ok {
		c.order = append(c.order, topic)
	}
	c.latest[topic] = payload
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return true
}

func (c *Conn) takePending() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.order) == 0 {
		return nil
	}
	out := make([][]byte, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.latest[t])
		delete(c.latest, t)
	}
	c.order = c.order[:0]
	return out
}

// Server upgrades HTTP requests and pumps snapshots to clients.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger

	// DefaultTopic is used when the request names no group.
	DefaultTopic func() string

	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
	ReadLimit  int64
}

// NewServer creates a websocket server over hub.
func NewServer(hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		PongWait:   60 * time.Second,
		PingPeriod: 30 * time.Second,
		WriteWait:  5 * time.Second,
		ReadLimit:  1 << 12,
	}
}

// ServeWS handles GET /ws?group=<name>. The connection lives until the
// client leaves or ctx is cancelled.
func (s *Server) ServeWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := newConn(s.hub, ws)
	metrics.StreamClients.Inc()

	topic := r.URL.Query().Get("group")
	if topic == "" && s.DefaultTopic != nil {
		topic = s.DefaultTopic()
	}

	// Subscribe before the pumps run so readPump's cleanup always follows it.
	if topic != "" {
		s.hub.Subscribe(c, []string{topic})
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		s.readPump(ctx, c)
		cancel()
	}()
	go s.writePump(ctx, c)
}

func (s *Server) readPump(ctx context.Context, c *Conn) {
	defer func() {
		c.closed.Store(true)
		c.hub.RemoveConn(c)
		_ = c.ws.Close()
		metrics.StreamClients.Dec()
	}()

	c.ws.SetReadLimit(s.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(s.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(s.PongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, b, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				s.logger.Debug("websocket read ended", "err", err)
			}
			return
		}

		var msg ClientMsg
		if json.Unmarshal(b, &msg) != nil {
			continue
		}
		switch msg.Type {
		case "sub":
			c.hub.Subscribe(c, msg.Topics)
		case "unsub":
			c.hub.Unsubscribe(c, msg.Topics)
		}
	}
}

func (s *Server) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(s.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.notify:
			for _, payload := range c.takePending() {
				_ = c.ws.SetWriteDeadline(time.Now().Add(s.WriteWait))
				if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
					s.logger.Debug("websocket write failed", "err", err)
					return
				}
				metrics.StreamPushedTotal.Inc()
			}

		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.WriteWait)); err != nil {
				return
			}

		case <-ctx.Done():
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(s.WriteWait))
			return
		}
	}
}
