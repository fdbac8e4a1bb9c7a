package providers

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/orchestra-mcp/relay/config"
	"github.com/orchestra-mcp/relay/src/bridge"
	"github.com/orchestra-mcp/relay/src/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, redisCfg *bridge.RedisConfig) (*Server, string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>relay</h1>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	cfg := config.DefaultConfig()
	cfg.PublicDir = dir
	s := NewServer(cfg, redisCfg, zerolog.Nop())
	require.NoError(t, s.Activate())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.Serve(ln) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, ln.Addr().String()
}

func dial(t *testing.T, addr string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, name string, data any) {
	t.Helper()
	ev, err := types.NewEvent(name, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ev))
}

// readNamed reads frames until one named name arrives.
func readNamed(t *testing.T, conn *websocket.Conn, name string) types.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var ev types.Event
		require.NoError(t, conn.ReadJSON(&ev))
		if ev.Event == name {
			return ev
		}
	}
}

func join(t *testing.T, conn *websocket.Conn, room, username string) types.JoinAcceptedPayload {
	t.Helper()
	writeEvent(t, conn, types.JoinRequest, types.JoinRequestPayload{RoomID: room, Username: username})
	ev := readNamed(t, conn, types.JoinAccepted)
	var p types.JoinAcceptedPayload
	require.NoError(t, json.Unmarshal(ev.Data, &p))
	return p
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestWebSocketJoinChatAndDisconnect(t *testing.T) {
	_, addr := newTestServer(t, nil)
	alice := dial(t, addr)
	bob := dial(t, addr)

	accepted := join(t, alice, "X", "alice")
	assert.Equal(t, "alice", accepted.User.Username)
	assert.Len(t, accepted.Users, 1)

	accepted = join(t, bob, "X", "bob")
	require.Len(t, accepted.Users, 2)
	assert.Equal(t, "alice", accepted.Users[0].Username)
	assert.Equal(t, "bob", accepted.Users[1].Username)

	joined := readNamed(t, alice, types.UserJoined)
	var jp types.UserPayload
	require.NoError(t, json.Unmarshal(joined.Data, &jp))
	assert.Equal(t, "bob", jp.User.Username)

	writeEvent(t, alice, types.SendMessage, map[string]any{"message": "hello", "sender": "alice"})
	got := readNamed(t, bob, types.ReceiveMessage)
	assert.JSONEq(t, `{"message":"hello","sender":"alice"}`, string(got.Data))

	require.NoError(t, alice.Close())
	left := readNamed(t, bob, types.UserDisconnected)
	var lp types.UserPayload
	require.NoError(t, json.Unmarshal(left.Data, &lp))
	assert.Equal(t, "alice", lp.User.Username)
}

func TestWebSocketDuplicateUsername(t *testing.T) {
	_, addr := newTestServer(t, nil)
	first := dial(t, addr)
	second := dial(t, addr)

	join(t, first, "X", "alice")
	writeEvent(t, second, types.JoinRequest, types.JoinRequestPayload{RoomID: "X", Username: "alice"})
	ev := readNamed(t, second, types.UsernameExists)
	assert.Empty(t, ev.Data)

	// The rejected connection may retry with another name.
	accepted := join(t, second, "X", "alice2")
	assert.Len(t, accepted.Users, 2)
}

func TestWebSocketTargetedSync(t *testing.T) {
	_, addr := newTestServer(t, nil)
	alice := dial(t, addr)
	bob := dial(t, addr)

	join(t, alice, "X", "alice")
	accepted := join(t, bob, "X", "bob")
	bobID := accepted.User.SocketID
	require.NotEmpty(t, bobID)

	writeEvent(t, alice, types.SyncFileStructure, map[string]any{
		"socketId":      bobID,
		"fileStructure": map[string]any{"name": "root"},
	})
	got := readNamed(t, bob, types.SyncFileStructure)
	assert.JSONEq(t, `{"fileStructure":{"name":"root"}}`, string(got.Data))
}

func TestHTTPRoutes(t *testing.T) {
	s, addr := newTestServer(t, nil)
	base := "http://" + addr

	conn := dial(t, addr)
	join(t, conn, "room-1", "alice")

	var health map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, base+"/health", &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, 1.0, health["members"])

	var info map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, base+"/ws/info", &info))
	assert.Equal(t, "/ws", info["endpoint"])
	assert.Equal(t, 1.0, info["rooms"])
	assert.Equal(t, false, info["bridge"])
	assert.Equal(t, map[string]any{"room-1": 1.0}, info["subscribers"])

	var rooms struct {
		Rooms []map[string]any `json:"rooms"`
		Count int              `json:"count"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, base+"/api/rooms", &rooms))
	require.Equal(t, 1, rooms.Count)
	assert.Equal(t, "room-1", rooms.Rooms[0]["roomId"])

	var members struct {
		Members []types.User `json:"members"`
		Count   int          `json:"count"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, base+"/api/rooms/room-1/members", &members))
	require.Len(t, members.Members, 1)
	assert.Equal(t, "alice", members.Members[0].Username)
	assert.Equal(t, types.StatusOnline, members.Members[0].Status)

	assert.Equal(t, http.StatusNotFound, getJSON(t, base+"/api/rooms/nope/members", nil))

	var clients map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, base+"/api/clients", &clients))
	assert.Equal(t, 1.0, clients["count"])

	assert.Equal(t, 1, s.Service().JoinedCount())
}

func TestStaticFiles(t *testing.T) {
	_, addr := newTestServer(t, nil)
	base := "http://" + addr

	resp, err := http.Get(base + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>relay</h1>", string(body))

	resp, err = http.Get(base + "/assets/app.js")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "console.log(1)", string(body))

	resp, err = http.Get(base + "/assets/missing.js")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpgradeRequired(t *testing.T) {
	_, addr := newTestServer(t, nil)

	var body map[string]string
	assert.Equal(t, http.StatusUpgradeRequired, getJSON(t, "http://"+addr+"/ws", &body))
	assert.Equal(t, "upgrade_required", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, addr := newTestServer(t, nil)
	conn := dial(t, addr)
	join(t, conn, "X", "alice")

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `relay_joins_total{outcome="accepted"} 1`)
	assert.Contains(t, string(body), "relay_connections 1")
}

func TestUnreachableRedisRunsStandalone(t *testing.T) {
	redisCfg := bridge.DefaultRedisConfig()
	redisCfg.Enabled = true
	redisCfg.Addr = "127.0.0.1:1"

	s, addr := newTestServer(t, redisCfg)
	assert.True(t, s.IsActive())
	assert.False(t, s.bridgeAvailable())

	conn := dial(t, addr)
	accepted := join(t, conn, "X", "alice")
	assert.Len(t, accepted.Users, 1)
}

func TestShutdownDeactivates(t *testing.T) {
	cfg := config.DefaultConfig()
	s := NewServer(cfg, nil, zerolog.Nop())
	require.NoError(t, s.Activate())
	require.NoError(t, s.Activate())
	assert.True(t, s.IsActive())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.False(t, s.IsActive())
}
