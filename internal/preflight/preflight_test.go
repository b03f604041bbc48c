package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"plexbridge/internal/config"
	"plexbridge/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if r := CheckCredentials(cfg); !r.Passed || r.Detail != "Token configured" {
		t.Fatalf("token config: %+v", r)
	}

	cfg.Server.Token = ""
	cfg.Server.Username = "alice"
	if r := CheckCredentials(cfg); r.Passed {
		t.Fatal("expected failure with username but no password")
	}

	cfg.Server.Password = "secret"
	if r := CheckCredentials(cfg); !r.Passed {
		t.Fatalf("credential pair: %+v", r)
	}

	cfg.Server.Host = ""
	if r := CheckCredentials(cfg); r.Passed || !strings.Contains(r.Detail, "server.host") {
		t.Fatalf("missing host: %+v", r)
	}
}

func plexServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status/sessions":
			if r.Header.Get("X-Plex-Token") != token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`<MediaContainer size="2"></MediaContainer>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func configFor(t *testing.T, srv *httptest.Server, token string) *config.Config {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	port, _ := strconv.Atoi(u.Port())
	cfg := testsupport.NewConfig(t, testsupport.WithServer(u.Hostname(), port))
	cfg.Server.Token = token
	cfg.Plex.ResourcesURL = srv.URL + "/api/resources?includeHttps=1"
	return cfg
}

func TestCheckPlexServer_OK(t *testing.T) {
	srv := plexServer(t, "good")
	defer srv.Close()

	result := CheckPlexServer(context.Background(), configFor(t, srv, "good"))
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "2 active sessions") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckPlexServer_BadToken(t *testing.T) {
	srv := plexServer(t, "good")
	defer srv.Close()

	result := CheckPlexServer(context.Background(), configFor(t, srv, "bad"))
	if result.Passed {
		t.Fatal("expected failure for bad token")
	}
}

func TestRunAllSkipsServerWithoutCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Host = ""
	results := RunAll(context.Background(), cfg)
	for _, r := range results {
		if r.Name == "Plex server" {
			t.Fatal("server check should be skipped without credentials")
		}
	}
	if !Failed(results) {
		t.Fatal("expected a failed result")
	}
}
