package players

import (
	"strconv"
	"testing"
	"time"

	"plexbridge/internal/services/plex"
)

func session(id, state string, offset, duration int64) plex.Session {
	return plex.Session{
		Title:         "Title " + id,
		Type:          "movie",
		Art:           "http://server/art/" + id,
		SessionKey:    "7",
		ViewOffsetRaw: itoa(offset),
		Media:         []plex.SessionMedia{{DurationRaw: itoa(duration)}},
		Player:        &plex.SessionPlayer{MachineIdentifier: id, State: state, LocalRaw: "1"},
	}
}

func singleSession(id, state string, offset, duration int64) []plex.Session {
	return []plex.Session{session(id, state, offset, duration)}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestReconcileMatchesRegisteredPlayers(t *testing.T) {
	reg := NewRegistry()
	reg.Register("A")
	reg.Register("B")

	res := Reconcile(reg, singleSession("A", "playing", 30000, 120000))
	if res.Players != 2 || res.Active != 1 {
		t.Fatalf("counts = %d/%d", res.Players, res.Active)
	}

	a, _ := reg.Lookup("A")
	if !a.Active || a.Status != StatusPlaying {
		t.Fatalf("A not playing: %+v", a)
	}
	if p, ok := a.Progress(); !ok || p != 0.25 {
		t.Fatalf("A progress = %v,%v", p, ok)
	}
	if !a.Local || a.Title != "Title A" {
		t.Fatalf("A fields not copied: %+v", a)
	}

	b, _ := reg.Lookup("B")
	if b.Active {
		t.Fatal("B should be inactive")
	}
	if proj := Project(b, time.Now()); proj.Status != "Stopped" || proj.Power != PowerOff {
		t.Fatalf("B projection = %+v", proj)
	}
}

func TestReconcileEmptySnapshotDeactivatesAll(t *testing.T) {
	reg := NewRegistry()
	reg.Register("A")
	reg.Register("B")
	Reconcile(reg, singleSession("A", "playing", 1, 10))

	res := Reconcile(reg, nil)
	if res.Players != 2 || res.Active != 0 {
		t.Fatalf("counts = %d/%d", res.Players, res.Active)
	}
	for _, st := range res.States {
		if st.Active {
			t.Fatalf("%s still active", st.ID)
		}
	}
	a, _ := reg.Lookup("A")
	if a.Title != "Title A" {
		t.Fatal("stale title should be retained")
	}
}

func TestReconcileIgnoresUnregisteredAndPartialSessions(t *testing.T) {
	reg := NewRegistry()
	reg.Register("A")

	orphan := plex.Session{Title: "No player"}
	stranger := session("Z", "playing", 0, 0)
	stranger.Player.Title = "Bedroom TV"
	res := Reconcile(reg, []plex.Session{orphan, stranger})

	if reg.Len() != 1 {
		t.Fatalf("unregistered session created an entry: %d", reg.Len())
	}
	if res.Active != 0 {
		t.Fatalf("active = %d", res.Active)
	}
	if len(res.Unregistered) != 1 || res.Unregistered[0].MachineIdentifier != "Z" || res.Unregistered[0].Name != "Bedroom TV" {
		t.Fatalf("unexpected sightings %+v", res.Unregistered)
	}
}

func TestReconcileMissingMediaLeavesProgressUndefined(t *testing.T) {
	reg := NewRegistry()
	reg.Register("A")
	rec := session("A", "paused", 5000, 0)
	rec.Media = nil
	Reconcile(reg, []plex.Session{rec})

	a, _ := reg.Lookup("A")
	if !a.Active || a.Status != StatusPaused {
		t.Fatalf("unexpected state %+v", a)
	}
	proj := Project(a, time.Now())
	if proj.Progress != nil || proj.EndTime != nil {
		t.Fatalf("expected undefined progress/end time, got %+v", proj)
	}
}

func TestReconcileDuplicateIdentifiersLastWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register("A")
	first := session("A", "playing", 0, 100)
	second := session("A", "paused", 50, 100)
	second.Title = "Second"
	res := Reconcile(reg, []plex.Session{first, second})

	if res.Active != 2 {
		t.Fatalf("expected one active count per matching record, got %d", res.Active)
	}
	if res.Players != 1 {
		t.Fatalf("players = %d", res.Players)
	}
	a, _ := reg.Lookup("A")
	if a.Title != "Second" || a.Status != StatusPaused {
		t.Fatalf("last session should win: %+v", a)
	}
}

func TestReconcileUnrecognizedStatus(t *testing.T) {
	reg := NewRegistry()
	reg.Register("A")
	res := Reconcile(reg, singleSession("A", "rewinding", 0, 100))

	if len(res.Unrecognized) != 1 || res.Unrecognized[0] != "A" {
		t.Fatalf("unrecognized = %v", res.Unrecognized)
	}
	a, _ := reg.Lookup("A")
	if a.Status != StatusUnrecognized || a.RawStatus != "rewinding" {
		t.Fatalf("status = %v raw=%q", a.Status, a.RawStatus)
	}
	if proj := Project(a, time.Now()); proj.Status != "Unrecognized" || proj.Power != PowerOn {
		t.Fatalf("projection = %+v", proj)
	}
}
