package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/stockwatch/internal/display"
)

// ErrStaleConnection is reported when the server stops pinging.
var ErrStaleConnection = errors.New("connection stale: no ping received")

// ClientConfig holds stream client settings.
type ClientConfig struct {
	URL    string   // ws://host:port/ws
	Groups []string // first group is the connect topic, the rest are sent as "sub"

	PingTimeout       time.Duration // default 90s, server pings every 30s
	WriteTimeout      time.Duration // default 5s
	ReconnectBaseWait time.Duration // default 1s
	ReconnectMaxWait  time.Duration // default 30s
}

func (c *ClientConfig) applyDefaults() {
	if c.PingTimeout <= 0 {
		c.PingTimeout = 90 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.ReconnectBaseWait <= 0 {
		c.ReconnectBaseWait = time.Second
	}
	if c.ReconnectMaxWait <= 0 {
		c.ReconnectMaxWait = 30 * time.Second
	}
}

// Client follows a row stream and reconnects with exponential backoff.
type Client struct {
	cfg    ClientConfig
	logger *slog.Logger
	dialer websocket.Dialer

	writeMu sync.Mutex
}

// NewClient creates a stream client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	return &Client{
		cfg:    cfg,
		logger: logger,
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run delivers snapshots to onSnapshot until ctx is cancelled. Dropped
// connections are re-dialed; the server replays each group's latest
// snapshot on subscribe so nothing but intermediate cycles is lost.
func (c *Client) Run(ctx context.Context, onSnapshot func(display.Snapshot)) error {
	wait := c.cfg.ReconnectBaseWait
	for {
		connected, err := c.session(ctx, onSnapshot)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			wait = c.cfg.ReconnectBaseWait
		}
		c.logger.Warn("stream disconnected", "url", c.cfg.URL, "err", err, "retry_in", wait)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		wait = min(wait*2, c.cfg.ReconnectMaxWait)
	}
}

func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse stream url: %w", err)
	}
	if len(c.cfg.Groups) > 0 {
		q := u.Query()
		q.Set("group", c.cfg.Groups[0])
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// session runs one connection. connected reports whether the dial
// succeeded.
func (c *Client) session(ctx context.Context, onSnapshot func(display.Snapshot)) (connected bool, err error) {
	target, err := c.dialURL()
	if err != nil {
		return false, err
	}
	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	c.logger.Debug("stream connected", "url", target)

	stop := context.AfterFunc(ctx, func() {
		c.writeMu.Lock()
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		conn.Close()
	})
	defer stop()

	_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PingTimeout))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PingTimeout))
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(c.cfg.WriteTimeout))
	})

	if len(c.cfg.Groups) > 1 {
		msg, _ := json.Marshal(ClientMsg{Type: "sub", Topics: c.cfg.Groups[1:]})
		c.writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
		err := conn.WriteMessage(websocket.TextMessage, msg)
		c.writeMu.Unlock()
		if err != nil {
			return true, err
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var ne interface{ Timeout() bool }
			if errors.As(err, &ne) && ne.Timeout() {
				return true, ErrStaleConnection
			}
			return true, err
		}

		var snap display.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			c.logger.Warn("bad snapshot", "err", err)
			continue
		}
		onSnapshot(snap)
	}
}
