package testsupport

import (
	"context"
	"testing"

	"plexbridge/internal/config"
	"plexbridge/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// AddPlayer persists a player registration for tests.
func AddPlayer(t testing.TB, st *store.Store, id, label string) {
	t.Helper()

	if err := st.AddPlayer(context.Background(), id, label); err != nil {
		t.Fatalf("store.AddPlayer: %v", err)
	}
}
