package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"plexbridge/internal/api"
	"plexbridge/internal/logging"
	"plexbridge/internal/players"
)

const (
	subscriberBuffer = 32
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = 30 * time.Second
)

// eventHub pushes every bridge report to websocket subscribers as api.Event
// JSON. A subscriber whose buffer fills is dropped.
type eventHub struct {
	logger   *slog.Logger
	now      func() time.Time
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func newEventHub(logger *slog.Logger, now func() time.Time) *eventHub {
	if logger == nil {
		logger = logging.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &eventHub{
		logger: logging.NewComponentLogger(logger, "events"),
		now:    now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*subscriber]struct{}),
	}
}

func (h *eventHub) ReportConnectivity(online bool, detail string) {
	h.broadcast(api.Event{Type: api.EventConnectivity, Online: &online, Detail: detail})
}

func (h *eventHub) ReportPlayerState(id string, p players.Projection) {
	player := api.FromProjection(p)
	h.broadcast(api.Event{Type: api.EventPlayer, PlayerID: id, Player: &player})
}

func (h *eventHub) ReportAggregateCounts(total, active int) {
	h.broadcast(api.Event{Type: api.EventCounts, Counts: &api.Counts{Total: total, Active: active}})
}

func (h *eventHub) ReportPlayerRemoved(id string) {
	h.broadcast(api.Event{Type: api.EventRemoved, PlayerID: id})
}

func (h *eventHub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *eventHub) broadcast(evt api.Event) {
	evt.Timestamp = api.FormatTime(h.now())
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Warn("encode event failed", logging.Error(err), logging.String("type", evt.Type))
		return
	}

	var slow []*subscriber
	h.mu.RLock()
	for sub := range h.clients {
		select {
		case sub.send <- data:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.logger.Debug("dropping slow events subscriber", logging.String("remote", sub.conn.RemoteAddr().String()))
		h.remove(sub)
	}
}

func (h *eventHub) add(sub *subscriber) {
	h.mu.Lock()
	h.clients[sub] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("events subscriber connected",
		logging.String("remote", sub.conn.RemoteAddr().String()),
		logging.Int("subscribers", total),
	)
}

func (h *eventHub) remove(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.clients[sub]
	delete(h.clients, sub)
	h.mu.Unlock()
	sub.close()
	if ok {
		h.logger.Debug("events subscriber disconnected", logging.String("remote", sub.conn.RemoteAddr().String()))
	}
}

func (h *eventHub) closeAll() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.clients))
	for sub := range h.clients {
		subs = append(subs, sub)
	}
	h.clients = make(map[*subscriber]struct{})
	h.mu.Unlock()
	for _, sub := range subs {
		sub.close()
	}
}

// ServeHTTP upgrades the request and streams events until the peer goes away.
func (h *eventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("events upgrade failed", logging.Error(err))
		return
	}
	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, subscriberBuffer),
		done: make(chan struct{}),
	}
	h.add(sub)
	go h.writeLoop(sub)
	h.readLoop(sub)
}

// readLoop discards inbound messages; it exists to notice closes and pongs.
func (h *eventHub) readLoop(sub *subscriber) {
	defer h.remove(sub)
	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *eventHub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-sub.done:
			return
		case data := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.remove(sub)
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.remove(sub)
				return
			}
		}
	}
}
