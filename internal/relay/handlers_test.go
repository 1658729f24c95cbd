package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/transport"
)

// testServer wires a Manager behind a real websocket endpoint so handler
// tests exercise the same Upgrade/Conn/Router path production uses.
func testServer(t *testing.T) (*Manager, *httptest.Server) {
	t.Helper()
	m := NewManager(newFakeRegistry(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := transport.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := transport.NewConn(ws)
		m.Router().Serve(ctx, conn)
		m.HandleDisconnect(conn)
	}))
	t.Cleanup(srv.Close)
	return m, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sendEvent(t *testing.T, ws *websocket.Conn, event string, payload any) {
	t.Helper()
	msg, err := transport.NewMessage(event, payload)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(msg))
}

func readEvent(t *testing.T, ws *websocket.Conn, into any) string {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg transport.Message
	require.NoError(t, ws.ReadJSON(&msg))
	if into != nil {
		require.NoError(t, msg.Decode(into))
	}
	return msg.Event
}

func TestRegisterClientCreatesRoomAndBroadcastsState(t *testing.T) {
	_, srv := testServer(t)
	ws := dial(t, srv)

	sendEvent(t, ws, "register-client", registerClientRequest{Secret: "s3cr3t", Version: model.Version[0]})

	var reply registerClientReply
	event := readEvent(t, ws, &reply)
	require.Equal(t, "client-registered", event)
	require.True(t, reply.Success)
	require.NotEmpty(t, reply.Room)

	event = readEvent(t, ws, nil)
	require.Equal(t, "state", event)
}

func TestRegisterClientRejectsIncompatibleVersion(t *testing.T) {
	_, srv := testServer(t)
	ws := dial(t, srv)

	sendEvent(t, ws, "register-client", registerClientRequest{Secret: "s3cr3t", Version: model.Version[0] + 1})

	var reply registerClientReply
	event := readEvent(t, ws, &reply)
	require.Equal(t, "client-registered", event)
	require.False(t, reply.Success)
	require.NotEmpty(t, reply.Reason)
}

func TestRegisterClientRejectsWrongSecret(t *testing.T) {
	m, srv := testServer(t)

	owner := dial(t, srv)
	sendEvent(t, owner, "register-client", registerClientRequest{Secret: "right"})
	var reply registerClientReply
	readEvent(t, owner, &reply)
	readEvent(t, owner, nil) // state
	require.True(t, reply.Success)
	roomID := reply.Room

	intruder := dial(t, srv)
	sendEvent(t, intruder, "register-client", registerClientRequest{Room: roomID, Secret: "wrong"})
	var intruderReply registerClientReply
	readEvent(t, intruder, &intruderReply)
	require.False(t, intruderReply.Success)

	room, ok := m.Room(roomID)
	require.True(t, ok)
	require.Equal(t, "right", room.Secret)
}

func TestAppendRejectedPastEndTimeCutoff(t *testing.T) {
	m, srv := testServer(t)
	ws := dial(t, srv)

	cutoff := time.Now().Add(-time.Hour)
	sendEvent(t, ws, "register-client", registerClientRequest{
		Secret:  "s3cr3t",
		Version: model.Version[0],
		Config:  &model.RoomConfig{LastSong: &cutoff},
	})

	var reply registerClientReply
	readEvent(t, ws, &reply)
	require.True(t, reply.Success)
	roomID := reply.Room
	readEvent(t, ws, nil) // state

	sendEvent(t, ws, "sources", sourcesRequest{Sources: []string{"fake"}})
	readEvent(t, ws, nil) // request-config

	sendEvent(t, ws, "append", appendRequest{Source: "fake", ID: "song-1", Performer: "Alice"})

	event := readEvent(t, ws, nil)
	require.Equal(t, "msg", event)

	room, ok := m.Room(roomID)
	require.True(t, ok)
	require.Zero(t, room.Queue.Len())
}
