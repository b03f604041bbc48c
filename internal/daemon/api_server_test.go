package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"plexbridge/internal/api"
	"plexbridge/internal/store"
	"plexbridge/internal/testsupport"
)

func newTestAPI(t *testing.T, token string) (*Daemon, http.Handler) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIBind("127.0.0.1:0", token))
	d := newTestDaemon(t, cfg, &stubSource{})
	if d.api == nil {
		t.Fatal("expected api server to be configured")
	}
	return d, d.api.handler
}

func serve(h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAPIServerDisabledWithoutBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg, &stubSource{})
	if d.api != nil {
		t.Fatal("expected api server to be disabled")
	}
	if d.Status(context.Background()).APIBind != "" {
		t.Fatal("expected empty api bind")
	}
}

func TestAPIServerRequiresToken(t *testing.T) {
	_, h := newTestAPI(t, "secret")

	if w := serve(h, http.MethodGet, "/api/players", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := serve(h, http.MethodGet, "/api/players", "", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	w := serve(h, http.MethodGet, "/api/players", "", "secret")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.PlayersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Counts.Total != 0 {
		t.Fatalf("unexpected counts: %+v", resp.Counts)
	}
}

func TestAPIServerRegisterAndDeregister(t *testing.T) {
	_, h := newTestAPI(t, "")

	w := serve(h, http.MethodPost, "/api/players", `{"id":"A","label":"Kitchen"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var reg registerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reg.Player.ID != "A" || reg.Player.Power != "OFF" || reg.Player.Status != "Stopped" {
		t.Fatalf("unexpected player: %+v", reg.Player)
	}

	if w := serve(h, http.MethodPost, "/api/players", `{"id":"A"}`, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 on re-register, got %d", w.Code)
	}
	if w := serve(h, http.MethodPost, "/api/players", `{"id":""}`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty id, got %d", w.Code)
	}
	if w := serve(h, http.MethodPost, "/api/players", `not json`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}

	if w := serve(h, http.MethodDelete, "/api/players/A", "", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := serve(h, http.MethodDelete, "/api/players/A", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAPIServerHistory(t *testing.T) {
	d, h := newTestAPI(t, "")
	ctx := context.Background()
	testsupport.AddPlayer(t, d.store, "A", "")
	progress := 0.5
	if err := d.store.RecordPlayerEvent(ctx, store.PlayerEvent{
		PlayerID:   "A",
		Status:     "Playing",
		Power:      "ON",
		Title:      "Pilot",
		MediaType:  "episode",
		Progress:   &progress,
		OccurredAt: time.Now(),
	}); err != nil {
		t.Fatalf("RecordPlayerEvent: %v", err)
	}

	w := serve(h, http.MethodGet, "/api/players/A/history?limit=5", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Events []api.PlayerEvent `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Events) != 1 || body.Events[0].Title != "Pilot" || body.Events[0].Progress == nil {
		t.Fatalf("unexpected history: %+v", body.Events)
	}

	w = serve(h, http.MethodGet, "/api/history?player=missing", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"events":[]`) {
		t.Fatalf("expected empty history, got %d %s", w.Code, w.Body.String())
	}
}

func TestAPIServerStatus(t *testing.T) {
	_, h := newTestAPI(t, "")
	w := serve(h, http.MethodGet, "/api/status", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Running || status.DatabasePath == "" || status.History.SchemaVersion == "" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestEventsWebsocketBroadcast(t *testing.T) {
	d, h := newTestAPI(t, "secret")
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	if _, resp, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatal("expected unauthenticated dial to fail")
	} else if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=secret", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, "subscriber", func() bool { return d.events.count() == 1 })

	d.events.ReportAggregateCounts(2, 1)
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var evt api.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read: %v", err)
	}
	if evt.Type != api.EventCounts || evt.Counts == nil || evt.Counts.Total != 2 || evt.Counts.Active != 1 {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if evt.Timestamp == "" {
		t.Fatal("expected timestamp")
	}

	d.events.closeAll()
	waitFor(t, "subscriber removal", func() bool { return d.events.count() == 0 })
}
