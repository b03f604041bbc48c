package players

import "time"

const (
	PowerOn  = "ON"
	PowerOff = "OFF"
)

// Projection is the set of observable values published for one player.
type Projection struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	Power            string     `json:"power"`
	Title            string     `json:"title"`
	Type             string     `json:"type"`
	Art              string     `json:"art"`
	Thumb            string     `json:"thumb"`
	GrandparentTitle string     `json:"grandparent_title,omitempty"`
	GrandparentThumb string     `json:"grandparent_thumb,omitempty"`
	Progress         *float64   `json:"progress,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	Local            bool       `json:"local"`
	Device           string     `json:"device,omitempty"`
}

// Project maps a state to its observable values. An inactive player always
// projects as Stopped with power OFF, while stored title and artwork are
// kept. Progress is undefined when the duration is unknown; the end time is
// only estimated for active players.
func Project(st State, now time.Time) Projection {
	p := Projection{
		ID:               st.ID,
		Status:           StatusStopped.String(),
		Power:            PowerOff,
		Title:            st.Title,
		Type:             st.Type,
		Art:              st.Art,
		Thumb:            st.Thumb,
		GrandparentTitle: st.GrandparentTitle,
		GrandparentThumb: st.GrandparentThumb,
		Local:            st.Local,
		Device:           st.Device,
	}
	if progress, ok := st.Progress(); ok {
		p.Progress = &progress
	}
	if !st.Active {
		return p
	}
	p.Status = st.Status.String()
	p.Power = PowerOn
	if remaining, ok := st.Remaining(); ok {
		end := now.Add(remaining)
		p.EndTime = &end
	}
	return p
}

// ProjectAll projects every state with the same clock reading.
func ProjectAll(states []State, now time.Time) []Projection {
	out := make([]Projection, 0, len(states))
	for _, st := range states {
		out = append(out, Project(st, now))
	}
	return out
}
