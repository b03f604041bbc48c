package services_test

import (
	"errors"
	"strings"
	"testing"

	"plexbridge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrFetch, "plex", "sessions", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"plex", "sessions", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"configuration", services.Wrap(services.ErrConfiguration, "bridge", "initialize", "host missing", nil), true},
		{"authentication", services.Wrap(services.ErrAuthentication, "plex", "sign in", "no token", nil), true},
		{"fetch", services.Wrap(services.ErrFetch, "plex", "sessions", "timeout", nil), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.IsFatal(tt.err); got != tt.want {
				t.Fatalf("IsFatal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if got := services.Classify(services.Wrap(services.ErrFetch, "", "", "x", nil)); got != "unreachable" {
		t.Fatalf("fetch classified as %q", got)
	}
	if got := services.Classify(services.Wrap(services.ErrAuthentication, "", "", "x", nil)); got != "authentication" {
		t.Fatalf("auth classified as %q", got)
	}
	if got := services.Classify(errors.New("other")); got != "transient" {
		t.Fatalf("plain error classified as %q", got)
	}
	if got := services.Classify(nil); got != "" {
		t.Fatalf("nil classified as %q", got)
	}
}
