package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"plexbridge/internal/api"
	"plexbridge/internal/config"
	"plexbridge/internal/logging"
	"plexbridge/internal/services"
)

const defaultHistoryLimit = 50

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon  *Daemon
	handler http.Handler

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

type registerRequest struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type registerResponse struct {
	Player  api.Player `json:"player"`
	Created bool       `json:"created"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}
	srv.handler = srv.routes(cfg.Paths.APIToken)
	return srv, nil
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, authMiddleware(token, h))
	}
	handle("GET /api/status", s.handleStatus)
	handle("GET /api/players", s.handlePlayers)
	handle("POST /api/players", s.handleRegister)
	handle("GET /api/players/discovered", s.handleDiscovered)
	handle("DELETE /api/players/{id}", s.handleDeregister)
	handle("GET /api/players/{id}/history", s.handlePlayerHistory)
	handle("GET /api/history", s.handleHistory)
	handle("POST /api/refresh", s.handleRefresh)
	handle("GET /api/logs", s.handleLogs)
	handle("GET /api/events", s.daemon.events.ServeHTTP)
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.server = server
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.log(), "api server error", "api_server_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "HTTP API unavailable until restart"),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	server, listener := s.server, s.listener
	s.server, s.listener = nil, nil
	s.mu.Unlock()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	if listener != nil {
		_ = listener.Close()
	}
}

// address is the bound listener address, or the configured bind when the
// server is not listening.
func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handlePlayers(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Players())
}

func (s *apiServer) handleDiscovered(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Discovered())
}

func (s *apiServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	player, created, err := s.daemon.RegisterPlayer(r.Context(), req.ID, req.Label)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, registerResponse{Player: player, Created: created})
}

func (s *apiServer) handleDeregister(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := s.daemon.DeregisterPlayer(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("player %q not registered", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handlePlayerHistory(w http.ResponseWriter, r *http.Request) {
	s.writeHistory(w, r, r.PathValue("id"))
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.writeHistory(w, r, r.URL.Query().Get("player"))
}

func (s *apiServer) writeHistory(w http.ResponseWriter, r *http.Request, id string) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	events, err := s.daemon.History(r.Context(), id, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if events == nil {
		events = []api.PlayerEvent{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *apiServer) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.daemon.Refresh()
	w.WriteHeader(http.StatusAccepted)
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	follow := queryFlag(query.Get("follow"))
	tail := queryFlag(query.Get("tail"))
	player := strings.TrimSpace(query.Get("player"))

	ctx := r.Context()
	if follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 25*time.Second)
		defer cancel()
	}
	resp, err := s.daemon.Logs(ctx, since, limit, follow, tail)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if player != "" {
		filtered := resp.Events[:0]
		for _, evt := range resp.Events {
			if evt.PlayerID == player {
				filtered = append(filtered, evt)
			}
		}
		resp.Events = filtered
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func queryFlag(value string) bool {
	return value == "1" || strings.EqualFold(value, "true")
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
