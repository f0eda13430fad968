package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, hub *Hub, userID string) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, userID)
	}))
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	sock, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}
	return sock, func() {
		sock.Close()
		server.Close()
	}
}

func waitOnline(t *testing.T, hub *Hub, userID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.IsOnline(userID) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %s never registered", userID)
}

func TestSendToUserDeliversEvent(t *testing.T) {
	hub := NewHub(nil)
	sock, cleanup := dialTestHub(t, hub, "usr_1")
	defer cleanup()
	waitOnline(t, hub, "usr_1")

	hub.SendToUser("usr_1", Event{Type: "direct_message", Payload: map[string]string{"body": "hello"}})

	_ = sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := sock.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var event struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Type != "direct_message" || event.Payload["body"] != "hello" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestSendToUserSkipsOfflineUsers(t *testing.T) {
	hub := NewHub(nil)
	// No connections registered; must not panic or block.
	hub.SendToUser("usr_missing", Event{Type: "noop"})
	if hub.IsOnline("usr_missing") {
		t.Fatal("expected offline user")
	}
}

func TestMultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub(nil)
	first, cleanupFirst := dialTestHub(t, hub, "usr_1")
	defer cleanupFirst()
	second, cleanupSecond := dialTestHub(t, hub, "usr_1")
	defer cleanupSecond()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && hub.ConnectionCount() < 2 {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ConnectionCount() != 2 {
		t.Fatalf("expected 2 connections, got %d", hub.ConnectionCount())
	}

	hub.SendToUser("usr_1", Event{Type: "ping"})

	for _, sock := range []*websocket.Conn{first, second} {
		_ = sock.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := sock.ReadMessage(); err != nil {
			t.Fatalf("both tabs should receive the event: %v", err)
		}
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil)
	sock, cleanup := dialTestHub(t, hub, "usr_1")
	defer cleanup()
	waitOnline(t, hub, "usr_1")

	sock.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && hub.IsOnline("usr_1") {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.IsOnline("usr_1") {
		t.Fatal("expected user unregistered after disconnect")
	}
}

func TestSendToUsersTargetsOnlyListedUsers(t *testing.T) {
	hub := NewHub(nil)
	target, cleanupTarget := dialTestHub(t, hub, "usr_target")
	defer cleanupTarget()
	bystander, cleanupBystander := dialTestHub(t, hub, "usr_bystander")
	defer cleanupBystander()
	waitOnline(t, hub, "usr_target")
	waitOnline(t, hub, "usr_bystander")

	hub.SendToUsers([]string{"usr_target"}, Event{Type: "task_comment"})

	_ = target.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := target.ReadMessage(); err != nil {
		t.Fatalf("target read: %v", err)
	}

	_ = bystander.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := bystander.ReadMessage(); err == nil {
		t.Fatal("bystander should not receive the event")
	}
}
