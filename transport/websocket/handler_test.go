package websocket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wricardo/gobang/game/matcher"
	"github.com/wricardo/gobang/game/message"
	"github.com/wricardo/gobang/game/presence"
	"github.com/wricardo/gobang/game/room"
	"github.com/wricardo/gobang/game/service"
	"github.com/wricardo/gobang/game/session"
	"github.com/wricardo/gobang/store"
)

type testEnv struct {
	server  *httptest.Server
	svc     service.GameService
	hub     *Hub
	tracker *presence.Tracker
	rooms   *room.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())

	users := store.NewMemory()
	tracker := presence.NewTracker()
	rooms := room.NewManager(room.Deps{Presence: tracker, Results: users, Logger: logger})
	m := matcher.New(matcher.DefaultThresholds(), matcher.Deps{
		Users: users, Rooms: rooms, Presence: tracker, Logger: logger,
	})
	m.Start(ctx)

	svc := service.NewGameService(service.Deps{
		Users:          users,
		Sessions:       session.NewManager(logger),
		Presence:       tracker,
		Rooms:          rooms,
		Matcher:        m,
		SessionTimeout: time.Minute,
		Logger:         logger,
	})

	hub := NewHub(logger)
	go hub.Run(ctx)

	handler := NewHandler(hub, svc, logger)
	router := mux.NewRouter()
	router.HandleFunc("/hall", handler.ServeHall)
	router.HandleFunc("/room", handler.ServeRoom)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		cancel()
		m.Stop()
	})
	return &testEnv{server: server, svc: svc, hub: hub, tracker: tracker, rooms: rooms}
}

func (e *testEnv) login(t *testing.T, name string) uint64 {
	t.Helper()
	ctx := context.Background()
	_, err := e.svc.Register(ctx, name, "pw")
	require.NoError(t, err)
	res, err := e.svc.Login(ctx, name, "pw")
	require.NoError(t, err)
	return res.SessionID
}

func (e *testEnv) dial(t *testing.T, path string, ssid uint64) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + path
	header := http.Header{}
	if ssid != 0 {
		header.Set("Cookie", fmt.Sprintf("%s=%d", SessionCookie, ssid))
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) *message.Response {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var resp message.Response
	require.NoError(t, conn.ReadJSON(&resp))
	return &resp
}

// readOp skips messages until one with the given optype arrives.
func readOp(t *testing.T, conn *websocket.Conn, op string) *message.Response {
	t.Helper()
	for {
		resp := read(t, conn)
		if resp.OpType == op {
			return resp
		}
	}
}

func TestHallWithoutCookie(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "/hall", 0)

	resp := read(t, conn)
	assert.Equal(t, message.OpHallReady, resp.OpType)
	assert.False(t, resp.Result)
	assert.Equal(t, ReasonNoCookie, resp.Reason)

	// The server closes the connection after the failure
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHallReadyAndMatchStart(t *testing.T) {
	env := newTestEnv(t)
	ssid := env.login(t, "alice")
	conn := env.dial(t, "/hall", ssid)

	ready := read(t, conn)
	assert.Equal(t, message.OpHallReady, ready.OpType)
	assert.True(t, ready.Result)

	require.NoError(t, conn.WriteJSON(message.Request{OpType: message.OpMatchStart}))
	resp := read(t, conn)
	assert.Equal(t, message.OpMatchStart, resp.OpType)
	assert.True(t, resp.Result)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	resp = read(t, conn)
	assert.False(t, resp.Result)
	assert.Equal(t, ReasonBadRequest, resp.Reason)
}

func TestHallDuplicateLogin(t *testing.T) {
	env := newTestEnv(t)
	ssid := env.login(t, "alice")

	first := env.dial(t, "/hall", ssid)
	require.True(t, read(t, first).Result)

	second := env.dial(t, "/hall", ssid)
	resp := read(t, second)
	assert.False(t, resp.Result)
	assert.Equal(t, service.ReasonDuplicateLogin, resp.Reason)

	// The first connection keeps working
	require.NoError(t, first.WriteJSON(message.Request{OpType: message.OpMatchStop}))
	assert.True(t, read(t, first).Result)
}

func TestHallCloseLeavesLobby(t *testing.T) {
	env := newTestEnv(t)
	ssid := env.login(t, "alice")

	conn := env.dial(t, "/hall", ssid)
	ready := read(t, conn)
	require.True(t, ready.Result)
	require.True(t, env.tracker.IsPresent(presence.Lobby, ready.UID))

	conn.Close()
	require.Eventually(t, func() bool {
		return !env.tracker.IsOnline(ready.UID)
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return env.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestMatchAndPlay(t *testing.T) {
	env := newTestEnv(t)
	aliceSSID := env.login(t, "alice")
	bobSSID := env.login(t, "bob")

	aliceHall := env.dial(t, "/hall", aliceSSID)
	aliceID := read(t, aliceHall).UID
	bobHall := env.dial(t, "/hall", bobSSID)
	bobID := read(t, bobHall).UID

	require.NoError(t, aliceHall.WriteJSON(message.Request{OpType: message.OpMatchStart}))
	require.NoError(t, bobHall.WriteJSON(message.Request{OpType: message.OpMatchStart}))

	match := readOp(t, aliceHall, message.OpMatchSuccess)
	assert.Equal(t, aliceID, match.WhiteID)
	assert.Equal(t, bobID, match.BlackID)
	readOp(t, bobHall, message.OpMatchSuccess)

	aliceHall.Close()
	bobHall.Close()
	require.Eventually(t, func() bool {
		return !env.tracker.IsOnline(aliceID) && !env.tracker.IsOnline(bobID)
	}, 2*time.Second, 10*time.Millisecond)

	aliceRoom := env.dial(t, "/room", aliceSSID)
	ready := read(t, aliceRoom)
	require.True(t, ready.Result)
	assert.Equal(t, match.RoomID, ready.RoomID)
	bobRoom := env.dial(t, "/room", bobSSID)
	require.True(t, read(t, bobRoom).Result)

	require.NoError(t, bobRoom.WriteJSON(message.Request{
		OpType: message.OpChat, RoomID: match.RoomID, Message: "hi",
	}))
	chat := readOp(t, aliceRoom, message.OpChat)
	assert.Equal(t, "hi", chat.Message)
	assert.Equal(t, bobID, chat.UID)

	require.NoError(t, aliceRoom.WriteJSON(message.Request{
		OpType: message.OpPutChess, RoomID: match.RoomID, Row: 7, Col: 7,
	}))
	moved := readOp(t, bobRoom, message.OpPutChess)
	require.NotNil(t, moved.Row)
	assert.Equal(t, 7, *moved.Row)
	assert.Equal(t, aliceID, moved.UID)

	// Alice leaves: Bob wins by forfeit
	aliceRoom.Close()
	forfeit := readOp(t, bobRoom, message.OpPutChess)
	assert.Equal(t, bobID, forfeit.Winner)
	assert.Equal(t, -1, *forfeit.Row)

	bobRoom.Close()
	require.Eventually(t, func() bool { return env.rooms.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRoomWithoutMatch(t *testing.T) {
	env := newTestEnv(t)
	ssid := env.login(t, "alice")

	conn := env.dial(t, "/room", ssid)
	resp := read(t, conn)
	assert.Equal(t, message.OpRoomReady, resp.OpType)
	assert.False(t, resp.Result)
	assert.Equal(t, service.ReasonNoRoom, resp.Reason)
}

func TestSessionID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/hall", nil)
	_, ok := SessionID(req)
	assert.False(t, ok)

	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "abc"})
	_, ok = SessionID(req)
	assert.False(t, ok)

	req = httptest.NewRequest(http.MethodGet, "/hall", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "42"})
	id, ok := SessionID(req)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)
}
