package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upgradedConn dials a real websocket against a throwaway httptest server and
// returns the server-side Conn, without starting Serve's pumps — letting
// tests exercise Send's buffering directly.
func upgradedConn(t *testing.T) *Conn {
	t.Helper()
	var serverConn *Conn
	ready := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverConn = NewConn(ws)
		close(ready)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	<-ready
	return serverConn
}

func TestConnSendDropsWhenBufferFull(t *testing.T) {
	c := upgradedConn(t)

	for i := 0; i < sendBufferSize; i++ {
		c.Send("event", map[string]int{"i": i})
	}
	assert.Len(t, c.send, sendBufferSize)

	// One more Send beyond capacity must be dropped, not block.
	c.Send("overflow", nil)
	assert.Len(t, c.send, sendBufferSize)
}

func TestConnCloseIsIdempotent(t *testing.T) {
	c := upgradedConn(t)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
