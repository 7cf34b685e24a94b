package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot-backend/internal/domain"
)

func dialHub(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestHubDeliversEventsToOwnerOnly(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.Handle))
	defer srv.Close()

	u1 := dialHub(t, srv, "u1")
	u2 := dialHub(t, srv, "u2")

	// Registration races the first broadcast without a short settle.
	time.Sleep(50 * time.Millisecond)

	hub.Log("u1", "info", "hello")
	hub.StatusChanged("u2", true)

	ev := readEvent(t, u1)
	assert.Equal(t, "log", ev.Type)
	assert.Equal(t, "info", ev.Level)
	assert.Equal(t, "hello", ev.Message)

	ev = readEvent(t, u2)
	assert.Equal(t, "status", ev.Type)
	require.NotNil(t, ev.Running)
	assert.True(t, *ev.Running)
}

func TestHubTradeUpdatePayload(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.Handle))
	defer srv.Close()

	conn := dialHub(t, srv, "u1")
	time.Sleep(50 * time.Millisecond)

	hub.TradeUpdate("u1", domain.TradeUpdate{WinCount: 2, LossCount: 1, TotalProfitLoss: 3.5, BalanceAfter: 1003.5})

	ev := readEvent(t, conn)
	require.Equal(t, "trade_update", ev.Type)

	var update domain.TradeUpdate
	require.NoError(t, json.Unmarshal(ev.Payload, &update))
	assert.Equal(t, 2, update.WinCount)
	assert.Equal(t, 1, update.LossCount)
	assert.InDelta(t, 3.5, update.TotalProfitLoss, 1e-9)
}

func TestHubRejectsMissingUserID(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.Handle))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHubBroadcastWithoutClientsIsNoOp(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() {
		hub.Log("nobody", "info", "dropped")
		hub.AccountInfo("nobody", json.RawMessage(`{}`))
	})
}
