package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botduel/botduel/internal/player"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// echoServer upgrades and echoes every text message back.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
}

func TestSendReceiveRoundTrip(t *testing.T) {
	c, err := Dial(wsURL(echoServer(t)))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Send(map[string]string{"type": "login", "user": "x"}))
	data, err := c.Receive(2 * time.Second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"login","user":"x"}`, string(data))
}

func TestReceiveTimeoutLeavesConnUsable(t *testing.T) {
	c, err := Dial(wsURL(echoServer(t)))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Receive(30 * time.Millisecond)
	require.ErrorIs(t, err, player.ErrTimeout)

	// The timeout must not poison the socket.
	require.NoError(t, c.Send(map[string]string{"type": "ping"}))
	data, err := c.Receive(2 * time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ping")
}

func TestReceiveAfterClose(t *testing.T) {
	c, err := Dial(wsURL(echoServer(t)))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	select {
	case <-c.Dead():
	case <-time.After(2 * time.Second):
		t.Fatal("connection never reported dead")
	}

	_, err = c.Receive(100 * time.Millisecond)
	require.Error(t, err)
	assert.False(t, errors.Is(err, player.ErrTimeout), "closed conn is a failure, not a timeout")
}
