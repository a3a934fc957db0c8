package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/stockwatch/internal/display"
	"github.com/rickgao/stockwatch/internal/model"
)

type fakeRows struct {
	groups []string
	rows   map[string][]model.Row
}

func (f *fakeRows) Groups() []string { return f.groups }
func (f *fakeRows) Rows(group string) []model.Row { return f.rows[group] }

func newTestServer(t *testing.T, hub *Hub) string {
	t.Helper()
	srv := NewServer(hub, nil)
	srv.DefaultTopic = func() string { return "自选" }

	ctx, cancel := context.WithCancel(context.Background())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.ServeWS(ctx, w, r)
	}))
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func readSnapshot(t *testing.T, c *websocket.Conn) display.Snapshot {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := c.ReadMessage()
	require.NoError(t, err)
	var snap display.Snapshot
	require.NoError(t, json.Unmarshal(b, &snap))
	return snap
}

func testRow(t *testing.T, s string, price float64, index int) model.Row {
	t.Helper()
	sym, err := model.ParseSymbol(s)
	require.NoError(t, err)
	return model.RowFromQuote(model.NewQuote(sym, "n", 10, price, time.Now()), index)
}

func TestStream_ReplayAndPublish(t *testing.T) {
	hub := NewHub()
	rows := &fakeRows{
		groups: []string{"自选"},
		rows:   map[string][]model.Row{"自选": {testRow(t, "SZ000001", 11, 1)}},
	}
	pub := NewPublisher(hub, rows, display.DefaultPalette(), nil)

	// Published before anyone connects: replayed on subscribe.
	pub.Refresh("自选")

	wsURL := newTestServer(t, hub)
	c, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws", nil)
	require.NoError(t, err)
	defer c.Close()

	snap := readSnapshot(t, c)
	assert.Equal(t, "自选", snap.Group)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "SZ000001", snap.Rows[0].Code)
	assert.Equal(t, "red", snap.Rows[0].Color)

	// A cycle publishes fresh rows.
	rows.rows["自选"] = []model.Row{testRow(t, "SZ000001", 9, 1), testRow(t, "SH600519", 10, 2)}
	cycleID := uuid.New()
	pub.Apply(model.Cycle{ID: cycleID})

	snap = readSnapshot(t, c)
	assert.Equal(t, cycleID, snap.CycleID)
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, "down", snap.Rows[0].Trend)
	assert.Equal(t, "flat", snap.Rows[1].Trend)
}

func TestStream_SubscribeMessage(t *testing.T) {
	hub := NewHub()
	wsURL := newTestServer(t, hub)

	c, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?group="+url.QueryEscape("银行"), nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.WriteJSON(ClientMsg{Type: "sub", Topics: []string{"科技"}}))
	assert.Eventually(t, func() bool {
		return hub.Subscribers("银行") == 1 && hub.Subscribers("科技") == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish("科技", []byte(`{"group":"科技","rows":[]}`))
	snap := readSnapshot(t, c)
	assert.Equal(t, "科技", snap.Group)

	require.NoError(t, c.WriteJSON(ClientMsg{Type: "unsub", Topics: []string{"科技"}}))
	assert.Eventually(t, func() bool { return hub.Subscribers("科技") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStream_DisconnectRemovesSubscription(t *testing.T) {
	hub := NewHub()
	wsURL := newTestServer(t, hub)

	c, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws", nil)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return hub.Subscribers("自选") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers("自选") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestConn_LatestOnly(t *testing.T) {
	c := newConn(NewHub(), nil)

	c.Offer("a", []byte("1"))
	c.Offer("b", []byte("x"))
	c.Offer("a", []byte("2"))

	pending := c.takePending()
	require.Len(t, pending, 2)
	assert.Equal(t, "2", string(pending[0]))
	assert.Equal(t, "x", string(pending[1]))
	assert.Nil(t, c.takePending())

	c.closed.Store(true)
	assert.False(t, c.Offer("a", []byte("3")))
}

func TestHub_Forget(t *testing.T) {
	hub := NewHub()
	hub.Publish("g", []byte("p"))
	hub.Forget("g")

	c := newConn(hub, nil)
	hub.Subscribe(c, []string{"g"})
	assert.Nil(t, c.takePending())
}

func TestHub_SubscribeSkipsClosedConn(t *testing.T) {
	hub := NewHub()
	hub.Publish("自选", []byte("p"))

	c := newConn(hub, nil)
	c.closed.Store(true)
	hub.RemoveConn(c)
	hub.Subscribe(c, []string{"自选"})

	assert.Equal(t, 0, hub.Subscribers("自选"))
	assert.Nil(t, c.takePending())
}
