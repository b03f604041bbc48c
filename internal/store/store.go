package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"plexbridge/internal/config"
	"plexbridge/internal/services"
)

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the state directory when needed and opens the history
// database configured in cfg.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens or creates the database at path and applies migrations.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// AddPlayer registers id, updating the label when it already exists.
func (s *Store) AddPlayer(ctx context.Context, id, label string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return services.Wrap(services.ErrValidation, "store", "add player", "player id is required", nil)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, label, registered_at) VALUES (?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET label = CASE WHEN excluded.label <> '' THEN excluded.label ELSE players.label END`,
		id, strings.TrimSpace(label), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

// RemovePlayer deletes id and its event history. It reports whether the
// player existed.
func (s *Store) RemovePlayer(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin remove player: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	res, err := tx.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("delete player: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM player_events WHERE player_id = ?`, strings.TrimSpace(id)); err != nil {
		return false, fmt.Errorf("delete player events: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit remove player: %w", err)
	}
	return affected > 0, nil
}

// ListPlayers returns registrations ordered by id.
func (s *Store) ListPlayers(ctx context.Context) ([]PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, registered_at FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []PlayerRecord
	for rows.Next() {
		var rec PlayerRecord
		var registered string
		if err := rows.Scan(&rec.ID, &rec.Label, &registered); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		rec.RegisteredAt = parseTime(registered)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordPlayerEvent appends a status transition.
func (s *Store) RecordPlayerEvent(ctx context.Context, ev PlayerEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	var progress sql.NullFloat64
	if ev.Progress != nil {
		progress = sql.NullFloat64{Float64: *ev.Progress, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO player_events (player_id, status, power, title, grandparent_title, media_type, progress, occurred_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.PlayerID, ev.Status, ev.Power, ev.Title, ev.GrandparentTitle, ev.MediaType, progress, formatTime(ev.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("insert player event: %w", err)
	}
	return nil
}

// PlayerEvents returns the newest events for id, newest first. An empty id
// returns events for every player.
func (s *Store) PlayerEvents(ctx context.Context, id string, limit int) ([]PlayerEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, player_id, status, power, title, grandparent_title, media_type, progress, occurred_at
              FROM player_events`
	args := []any{}
	if id = strings.TrimSpace(id); id != "" {
		query += ` WHERE player_id = ?`
		args = append(args, id)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query player events: %w", err)
	}
	defer rows.Close()

	var out []PlayerEvent
	for rows.Next() {
		var ev PlayerEvent
		var progress sql.NullFloat64
		var occurred string
		if err := rows.Scan(&ev.ID, &ev.PlayerID, &ev.Status, &ev.Power, &ev.Title, &ev.GrandparentTitle, &ev.MediaType, &progress, &occurred); err != nil {
			return nil, fmt.Errorf("scan player event: %w", err)
		}
		if progress.Valid {
			p := progress.Float64
			ev.Progress = &p
		}
		ev.OccurredAt = parseTime(occurred)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// RecordConnectivity appends a reachability change.
func (s *Store) RecordConnectivity(ctx context.Context, ev ConnectivityEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO connectivity_events (online, detail, occurred_at) VALUES (?, ?, ?)`,
		boolToInt(ev.Online), ev.Detail, formatTime(ev.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("insert connectivity event: %w", err)
	}
	return nil
}

// LastConnectivity returns the most recent reachability change, or ok=false
// when none was recorded.
func (s *Store) LastConnectivity(ctx context.Context) (ConnectivityEvent, bool, error) {
	var ev ConnectivityEvent
	var online int
	var occurred string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, online, detail, occurred_at FROM connectivity_events ORDER BY id DESC LIMIT 1`,
	).Scan(&ev.ID, &online, &ev.Detail, &occurred)
	if errors.Is(err, sql.ErrNoRows) {
		return ConnectivityEvent{}, false, nil
	}
	if err != nil {
		return ConnectivityEvent{}, false, fmt.Errorf("query connectivity: %w", err)
	}
	ev.Online = online != 0
	ev.OccurredAt = parseTime(occurred)
	return ev, true, nil
}

// Prune deletes events older than cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ts := formatTime(cutoff)
	var total int64
	for _, table := range []string{"player_events", "connectivity_events"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE occurred_at < ?`, ts)
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += n
	}
	return total, nil
}

// CheckHealth returns row counts and the schema version.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	h := Health{Path: s.path}
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return h, err
	}
	h.SchemaVersion = version
	counts := []struct {
		table string
		dst   *int
	}{
		{"players", &h.Players},
		{"player_events", &h.PlayerEvents},
		{"connectivity_events", &h.ConnectivityEvents},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+c.table).Scan(c.dst); err != nil {
			return h, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return h, nil
}

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
