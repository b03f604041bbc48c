package players

import (
	"testing"
	"time"
)

func TestDiscoveryRecordAndExpire(t *testing.T) {
	d := NewDiscovery(time.Minute)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	fresh := d.Record([]Sighting{{MachineIdentifier: "x", LastSeen: base}, {MachineIdentifier: ""}})
	if len(fresh) != 1 || fresh[0] != "x" {
		t.Fatalf("fresh = %v", fresh)
	}
	if again := d.Record([]Sighting{{MachineIdentifier: "x", LastSeen: base.Add(10 * time.Second)}}); len(again) != 0 {
		t.Fatalf("repeat sighting reported as new: %v", again)
	}
	d.Record([]Sighting{{MachineIdentifier: "y", LastSeen: base.Add(20 * time.Second)}})

	list := d.List(base.Add(30 * time.Second))
	if len(list) != 2 || list[0].MachineIdentifier != "y" {
		t.Fatalf("unexpected list %+v", list)
	}

	if list := d.List(base.Add(75 * time.Second)); len(list) != 1 || list[0].MachineIdentifier != "y" {
		t.Fatalf("expired sighting kept: %+v", list)
	}
	d.Forget("y")
	if list := d.List(base.Add(75 * time.Second)); len(list) != 0 {
		t.Fatalf("forget did not remove: %+v", list)
	}
}
