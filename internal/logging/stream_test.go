package logging

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestStreamHandlerCarriesWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	handler := newStreamHandler(slog.NewTextHandler(io.Discard, nil), hub)

	logger := slog.New(handler).
		With(slog.String(FieldComponent, "bridge")).
		With(slog.String(FieldPlayerID, "abc"))
	logger.Info("player updated", slog.String("status", "Paused"))

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.Component != "bridge" || evt.PlayerID != "abc" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if evt.Fields["status"] != "Paused" {
		t.Fatalf("expected status field, got %v", evt.Fields)
	}
}

func TestStreamHubEvictsOldest(t *testing.T) {
	hub := NewStreamHub(2)
	for _, msg := range []string{"one", "two", "three"} {
		hub.Publish(LogEvent{Message: msg})
	}
	events, last := hub.Tail(10)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Message != "two" || events[1].Message != "three" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if last != 3 {
		t.Fatalf("expected last sequence 3, got %d", last)
	}
}

func TestStreamHubFetchSince(t *testing.T) {
	hub := NewStreamHub(10)
	for i := 0; i < 5; i++ {
		hub.Publish(LogEvent{Message: "evt"})
	}
	events, next, err := hub.Fetch(context.Background(), 3, 10, false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 2 || events[0].Sequence != 4 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if next != 5 {
		t.Fatalf("expected next 5, got %d", next)
	}
	events, _, err = hub.Fetch(context.Background(), 5, 10, false)
	if err != nil || len(events) != 0 {
		t.Fatalf("expected no events, got %d (%v)", len(events), err)
	}
}

func TestStreamHubFetchWaitsForPublish(t *testing.T) {
	hub := NewStreamHub(10)
	go func() {
		time.Sleep(20 * time.Millisecond)
		hub.Publish(LogEvent{Message: "late"})
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	events, _, err := hub.Fetch(ctx, 0, 10, true)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 1 || events[0].Message != "late" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestStreamHubFetchHonoursCancel(t *testing.T) {
	hub := NewStreamHub(10)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := hub.Fetch(ctx, 0, 10, true); err == nil {
		t.Fatal("expected context error")
	}
}
