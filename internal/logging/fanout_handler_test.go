package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeHandlerRespectsLevels(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	info := slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	errOnly := slog.NewTextHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError})

	logger := slog.New(TeeHandler(info, nil, errOnly)).With(slog.String("component", "tee"))
	logger.Info("hello")
	logger.Error("boom")

	if !strings.Contains(infoBuf.String(), "hello") || !strings.Contains(infoBuf.String(), "boom") {
		t.Fatalf("info handler missing records: %q", infoBuf.String())
	}
	if strings.Contains(errBuf.String(), "hello") {
		t.Fatalf("error handler received info record: %q", errBuf.String())
	}
	if !strings.Contains(errBuf.String(), "component=tee") {
		t.Fatalf("expected attrs propagated, got %q", errBuf.String())
	}
}

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := TeeHandler().(NoopHandler); !ok {
		t.Fatal("expected noop handler for empty tee")
	}
	single := slog.NewTextHandler(&bytes.Buffer{}, nil)
	if TeeHandler(single) != slog.Handler(single) {
		t.Fatal("expected single handler returned as-is")
	}
	if !TeeLogger(nil, single).Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected tee logger enabled")
	}
}
