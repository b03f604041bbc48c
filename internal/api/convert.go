package api

import (
	"time"

	"plexbridge/internal/logging"
	"plexbridge/internal/players"
	"plexbridge/internal/store"
)

// FromProjection converts a player projection to its API representation.
func FromProjection(p players.Projection) Player {
	dto := Player{
		ID:               p.ID,
		Status:           p.Status,
		Power:            p.Power,
		Title:            p.Title,
		Type:             p.Type,
		Art:              p.Art,
		Thumb:            p.Thumb,
		GrandparentTitle: p.GrandparentTitle,
		GrandparentThumb: p.GrandparentThumb,
		Local:            p.Local,
		Device:           p.Device,
	}
	if p.Progress != nil {
		v := *p.Progress
		dto.Progress = &v
	}
	if p.EndTime != nil {
		dto.EndTime = FormatTime(*p.EndTime)
	}
	return dto
}

// FromProjections converts projections, preserving order.
func FromProjections(list []players.Projection) []Player {
	out := make([]Player, 0, len(list))
	for _, p := range list {
		out = append(out, FromProjection(p))
	}
	return out
}

// FromSightings converts discovery entries.
func FromSightings(list []players.Sighting) []Sighting {
	out := make([]Sighting, 0, len(list))
	for _, s := range list {
		out = append(out, Sighting{
			MachineIdentifier: s.MachineIdentifier,
			Name:              s.Name,
			Product:           s.Product,
			Platform:          s.Platform,
			MediaTitle:        s.MediaTitle,
			LastSeen:          FormatTime(s.LastSeen),
		})
	}
	return out
}

// FromPlayerEvents converts stored history rows.
func FromPlayerEvents(list []store.PlayerEvent) []PlayerEvent {
	out := make([]PlayerEvent, 0, len(list))
	for _, ev := range list {
		dto := PlayerEvent{
			PlayerID:         ev.PlayerID,
			Status:           ev.Status,
			Power:            ev.Power,
			Title:            ev.Title,
			GrandparentTitle: ev.GrandparentTitle,
			Type:             ev.MediaType,
			OccurredAt:       FormatTime(ev.OccurredAt),
		}
		if ev.Progress != nil {
			v := *ev.Progress
			dto.Progress = &v
		}
		out = append(out, dto)
	}
	return out
}

// FromHealth converts store health for status output.
func FromHealth(h store.Health) HistoryStatus {
	return HistoryStatus{
		Path:               h.Path,
		SchemaVersion:      h.SchemaVersion,
		Players:            h.Players,
		PlayerEvents:       h.PlayerEvents,
		ConnectivityEvents: h.ConnectivityEvents,
	}
}

// FromLogEvents converts hub events.
func FromLogEvents(list []logging.LogEvent) []LogEvent {
	out := make([]LogEvent, 0, len(list))
	for _, evt := range list {
		out = append(out, LogEvent{
			Sequence:      evt.Sequence,
			Timestamp:     FormatTime(evt.Timestamp),
			Level:         evt.Level,
			Message:       evt.Message,
			Component:     evt.Component,
			PlayerID:      evt.PlayerID,
			Tick:          evt.Tick,
			CorrelationID: evt.CorrelationID,
			Fields:        evt.Fields,
		})
	}
	return out
}

// FormatTime renders t in the API timestamp format, or "" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ParseTime reverses FormatTime.
func ParseTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateTimeFormat, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
