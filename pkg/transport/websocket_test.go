package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// testServer accepts one websocket connection and hands it to the test
type testServer struct {
	*httptest.Server
	conns chan *websocket.Conn
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{conns: make(chan *websocket.Conn, 1)}
	upgrader := websocket.Upgrader{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.conns <- conn
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func (ts *testServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ts.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted a connection")
		return nil
	}
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func TestWebSocketChannel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ts := newTestServer(t)
	defer ts.Close()
	c := NewWebSocketChannel(ts.wsURL(), WebSocketOptions{}, nil)
	require.NoError(t, c.Connect(context.Background()))
	server := ts.accept(t)

	assert.Equal(t, EventConnect, nextEvent(t, c.Events()).Name)

	t.Run("emit writes an envelope", func(t *testing.T) {
		require.NoError(t, c.Emit(EventMessage, ChatMessage{ID: "1", Username: "alice", Role: "User", Text: "hi"}))

		var env struct {
			Event string      `json:"event"`
			Data  ChatMessage `json:"data"`
		}
		require.NoError(t, server.ReadJSON(&env))
		assert.Equal(t, "message", env.Event)
		assert.Equal(t, "hi", env.Data.Text)
	})

	t.Run("presence updates the online set", func(t *testing.T) {
		require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"event":"presence","data":{"online":["alice","bob"]}}`)))

		ev := nextEvent(t, c.Events())
		assert.Equal(t, EventPresence, ev.Name)
		assert.Equal(t, []string{"alice", "bob"}, c.Online())
		assert.True(t, c.IsOnline("bob"))
		assert.False(t, c.IsOnline("carol"))
	})

	t.Run("malformed frames are skipped", func(t *testing.T) {
		require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`not json`)))
		require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"event":"msg","data":{"id":"2","username":"bob","text":"yo"}}`)))

		ev := nextEvent(t, c.Events())
		assert.Equal(t, EventChat, ev.Name)
		var msg ChatMessage
		require.NoError(t, ev.Decode(&msg))
		assert.Equal(t, "yo", msg.Text)
	})

	t.Run("server close delivers disconnect", func(t *testing.T) {
		server.Close()

		ev := nextEvent(t, c.Events())
		assert.Equal(t, EventDisconnect, ev.Name)
		assert.Error(t, ev.Err)
		assert.Empty(t, c.Online())
	})

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Emit(EventMessage, nil), ErrClosed)
}

func TestWebSocketChannel_ConnectError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ts := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	ts.Close()

	c := NewWebSocketChannel(url, WebSocketOptions{HandshakeTimeout: time.Second}, nil)
	err := c.Connect(context.Background())
	require.Error(t, err)

	ev := nextEvent(t, c.Events())
	assert.Equal(t, EventConnectError, ev.Name)
	assert.Error(t, ev.Err)
	assert.ErrorIs(t, c.Emit(EventMessage, nil), ErrClosed)
	assert.NoError(t, c.Close())
}

func TestWebSocketChannel_CloseStopsReader(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ts := newTestServer(t)
	defer ts.Close()
	c := NewWebSocketChannel(ts.wsURL(), WebSocketOptions{}, nil)
	require.NoError(t, c.Connect(context.Background()))
	ts.accept(t)
	nextEvent(t, c.Events())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
