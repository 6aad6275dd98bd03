package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialRoom(t *testing.T, ts *httptest.Server, code string, playerID int, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/" + code
	if playerID > 0 {
		url += fmt.Sprintf("?player_id=%d&name=%s", playerID, name)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	env, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

// waitForEnvelope reads until a message of the wanted type arrives,
// skipping interleaved broadcasts.
func waitForEnvelope(t *testing.T, conn *websocket.Conn, msgType string) Envelope {
	t.Helper()
	for i := 0; i < 20; i++ {
		env := readEnvelope(t, conn)
		if env.Type == msgType {
			return env
		}
	}
	t.Fatalf("no %s envelope arrived", msgType)
	return Envelope{}
}

func TestWebsocketSendsSnapshotOnConnect(t *testing.T) {
	srv := New(nil, newTestConfig(t))
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	code := createRoom(t, ts)
	alice := joinPlayer(t, ts, code, "Alice")

	conn := dialRoom(t, ts, code, alice, "Alice")
	env := readEnvelope(t, conn)
	if env.Type != msgStatePatch {
		t.Fatalf("expected the first message to be a state patch, got %q", env.Type)
	}
	if env.Patch == nil || env.Patch.Phase == nil || *env.Patch.Phase != phaseLobby {
		t.Fatalf("expected lobby snapshot, got %+v", env.Patch)
	}
	if env.Patch.Scores == nil {
		t.Fatal("expected scores in the snapshot patch")
	}
}

func TestWebsocketRejectsUnknownRoom(t *testing.T) {
	srv := New(nil, newTestConfig(t))
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/ZZZZZZ"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to an unknown room to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
}

func TestWebsocketPresenceSync(t *testing.T) {
	srv := New(nil, newTestConfig(t))
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	code := createRoom(t, ts)
	alice := joinPlayer(t, ts, code, "Alice")
	bob := joinPlayer(t, ts, code, "Bob")

	aliceConn := dialRoom(t, ts, code, alice, "Alice")
	env := waitForEnvelope(t, aliceConn, msgPresenceSync)
	if len(env.Presence) != 1 || env.Presence[0].PlayerID != alice {
		t.Fatalf("expected alice alone in the roster, got %+v", env.Presence)
	}

	dialRoom(t, ts, code, bob, "Bob")

	// Alice sees the roster grow to two.
	for i := 0; i < 20; i++ {
		env = waitForEnvelope(t, aliceConn, msgPresenceSync)
		if len(env.Presence) == 2 {
			return
		}
	}
	t.Fatalf("roster never reached two entries, last: %+v", env.Presence)
}

func TestWebsocketSpectatorNotInRoster(t *testing.T) {
	srv := New(nil, newTestConfig(t))
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	code := createRoom(t, ts)
	alice := joinPlayer(t, ts, code, "Alice")

	dialRoom(t, ts, code, 0, "")

	aliceConn := dialRoom(t, ts, code, alice, "Alice")
	env := waitForEnvelope(t, aliceConn, msgPresenceSync)
	for _, entry := range env.Presence {
		if entry.PlayerID == 0 {
			t.Fatalf("spectator leaked into the roster: %+v", env.Presence)
		}
	}
}

func TestWebsocketBroadcastOnMutation(t *testing.T) {
	srv := New(nil, newTestConfig(t))
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	code := createRoom(t, ts)
	alice := joinPlayer(t, ts, code, "Alice")

	conn := dialRoom(t, ts, code, alice, "Alice")
	// Drain the connect snapshot.
	if env := readEnvelope(t, conn); env.Type != msgStatePatch {
		t.Fatalf("expected snapshot first, got %q", env.Type)
	}

	joinPlayer(t, ts, code, "Bob")

	// The join is rebroadcast as a full state patch with both players
	// in the score map.
	for i := 0; i < 20; i++ {
		env := waitForEnvelope(t, conn, msgStatePatch)
		if len(env.Patch.Scores) == 2 {
			return
		}
	}
	t.Fatal("no state patch with both players arrived")
}

func TestWebsocketJoinAnnounceRelayed(t *testing.T) {
	srv := New(nil, newTestConfig(t))
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	code := createRoom(t, ts)
	alice := joinPlayer(t, ts, code, "Alice")
	bob := joinPlayer(t, ts, code, "Bob")

	aliceConn := dialRoom(t, ts, code, alice, "Alice")
	dialRoom(t, ts, code, bob, "Bob")

	// Alice's own announce arrives first; wait for Bob's.
	for i := 0; i < 20; i++ {
		env := waitForEnvelope(t, aliceConn, msgJoinAnnounce)
		if env.Join.PlayerID == bob {
			if env.Join.Name != "Bob" {
				t.Fatalf("unexpected join announce: %+v", env.Join)
			}
			return
		}
	}
	t.Fatal("no join announce for bob arrived")
}
