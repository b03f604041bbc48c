package plex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"plexbridge/internal/logging"
)

const playingNotification = `{"NotificationContainer":{"type":"playing","size":2,"PlaySessionStateNotification":[{"sessionKey":"7","state":"paused","viewOffset":4500},{"sessionKey":"","state":"playing"}]}}`

func TestParseNotification(t *testing.T) {
	states, err := ParseNotification([]byte(playingNotification))
	if err != nil {
		t.Fatalf("ParseNotification: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("expected 1 state (blank key dropped), got %d", len(states))
	}
	if states[0].SessionKey != "7" || states[0].State != "paused" || states[0].ViewOffset != 4500 {
		t.Fatalf("unexpected state %+v", states[0])
	}

	other, err := ParseNotification([]byte(`{"NotificationContainer":{"type":"timeline"}}`))
	if err != nil || other != nil {
		t.Fatalf("expected nil for other types, got %v %v", other, err)
	}
	if _, err := ParseNotification([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNotificationListenerURL(t *testing.T) {
	l := NewNotificationListener(Connection{Scheme: "https", Host: "10.0.0.5", Port: 32400, Token: "tok"}, Identity{}, nil, nil)
	if got := l.URL(); got != "wss://10.0.0.5:32400/:/websockets/notifications?X-Plex-Token=tok" {
		t.Fatalf("URL = %q", got)
	}
}

func TestNotificationListenerDeliversStates(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != notificationsPath || r.URL.Query().Get("X-Plex-Token") != "tok" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"NotificationContainer":{"type":"activity"}}`))
		_ = ws.WriteMessage(websocket.TextMessage, []byte(playingNotification))
		_, _, _ = ws.ReadMessage()
	}))
	defer server.Close()

	host, port := hostPort(t, server.URL)
	var mu sync.Mutex
	var got []PlaySessionState
	done := make(chan struct{})
	l := NewNotificationListener(Connection{Scheme: "http", Host: host, Port: port, Token: "tok"}, Identity{ClientIdentifier: "c"},
		func(st PlaySessionState) {
			mu.Lock()
			got = append(got, st)
			mu.Unlock()
			close(done)
		}, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(finished)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no notification delivered")
	}
	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || !strings.EqualFold(got[0].State, "paused") {
		t.Fatalf("unexpected states %+v", got)
	}
}

func TestNotificationListenerStopsWhileRetrying(t *testing.T) {
	l := NewNotificationListener(Connection{Host: "127.0.0.1", Port: 1, Token: "tok"}, Identity{}, nil, logging.NewNop())
	l.minRetry = 10 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	finished := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not honour context")
	}
}
