package players

import (
	"testing"
	"time"
)

func TestProjectActive(t *testing.T) {
	now := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	st := State{ID: "A", Active: true, Status: StatusPlaying, Title: "Pilot", Offset: 30000, Duration: 120000}
	proj := Project(st, now)

	if proj.Status != "Playing" || proj.Power != PowerOn {
		t.Fatalf("status/power = %s/%s", proj.Status, proj.Power)
	}
	if proj.Progress == nil || *proj.Progress != 0.25 {
		t.Fatalf("progress = %v", proj.Progress)
	}
	if proj.EndTime == nil || !proj.EndTime.Equal(now.Add(90*time.Second)) {
		t.Fatalf("end time = %v", proj.EndTime)
	}
}

func TestProjectInactiveOverridesStatus(t *testing.T) {
	st := State{ID: "A", Active: false, Status: StatusPlaying, Title: "Stale", Art: "art", Offset: 10, Duration: 100}
	proj := Project(st, time.Now())
	if proj.Status != "Stopped" || proj.Power != PowerOff {
		t.Fatalf("inactive projection = %s/%s", proj.Status, proj.Power)
	}
	if proj.Title != "Stale" || proj.Art != "art" {
		t.Fatal("stored title and art should be retained")
	}
	if proj.EndTime != nil {
		t.Fatal("inactive player should not estimate an end time")
	}
}

func TestProjectClampsProgress(t *testing.T) {
	now := time.Now()
	over := Project(State{Active: true, Status: StatusPlaying, Offset: 150, Duration: 100}, now)
	if over.Progress == nil || *over.Progress != 1 {
		t.Fatalf("progress over duration = %v", over.Progress)
	}
	if !over.EndTime.Equal(now) {
		t.Fatalf("end time should not precede now: %v", over.EndTime)
	}
	under := Project(State{Active: true, Status: StatusPlaying, Offset: -5, Duration: 100}, now)
	if under.Progress == nil || *under.Progress != 0 {
		t.Fatalf("negative offset progress = %v", under.Progress)
	}
}
