package players

import "testing"

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw    string
		want   Status
		wantOK bool
	}{
		{"playing", StatusPlaying, true},
		{"PAUSED", StatusPaused, true},
		{" buffering ", StatusBuffering, true},
		{"stopped", StatusStopped, true},
		{"rewinding", StatusUnrecognized, false},
		{"", StatusUnrecognized, false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ParseStatus(%q) = %v,%v want %v,%v", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestStatusString(t *testing.T) {
	if got := StatusPlaying.String(); got != "Playing" {
		t.Fatalf("StatusPlaying.String() = %q", got)
	}
	if got := StatusUnrecognized.String(); got != "Unrecognized" {
		t.Fatalf("StatusUnrecognized.String() = %q", got)
	}
	if got := Status(42).String(); got != "Unrecognized" {
		t.Fatalf("out of range status = %q", got)
	}
}
