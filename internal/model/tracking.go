package model

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	EventSourceCarrier = "carrier"
	EventSourceCourier = "courier" // pushed by the courier webhook
	EventSourceAdmin   = "admin"
)

type TrackingEvent struct {
	Key       string    `json:"key"`
	Status    string    `json:"status"`
	Label     string    `json:"label,omitempty"`
	Message   string    `json:"message,omitempty"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// EventKey is the stable identity used to de-duplicate tracking events.
func EventKey(source, awb, code string, at time.Time, location string) string {
	return strings.Join([]string{
		source,
		awb,
		strings.ToUpper(strings.TrimSpace(code)),
		at.UTC().Format(time.RFC3339),
		strings.ToLower(strings.TrimSpace(location)),
	}, "|")
}

// WithKey fills in Key when the caller didn't supply one.
func (e TrackingEvent) WithKey(awb string) TrackingEvent {
	if e.Key == "" {
		e.Key = EventKey(e.Source, awb, e.Status, e.Timestamp, e.Location)
	}
	return e
}

// DecodeTrackingEvents reads the stored events column. Anything that is not a
// JSON array of events decodes as an empty list.
func DecodeTrackingEvents(raw datatypes.JSON) []TrackingEvent {
	if len(raw) == 0 {
		return []TrackingEvent{}
	}
	var events []TrackingEvent
	if err := json.Unmarshal(raw, &events); err != nil || events == nil {
		return []TrackingEvent{}
	}
	return events
}

func EncodeTrackingEvents(events []TrackingEvent) (datatypes.JSON, error) {
	if events == nil {
		events = []TrackingEvent{}
	}
	b, err := json.Marshal(events)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// MergeTrackingEvents appends the events whose keys are not already present
// and reports how many were added. Existing order is preserved.
func MergeTrackingEvents(existing []TrackingEvent, incoming ...TrackingEvent) ([]TrackingEvent, int) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, e := range existing {
		if e.Key != "" {
			seen[e.Key] = struct{}{}
		}
	}

	added := 0
	for _, e := range incoming {
		if _, dup := seen[e.Key]; dup {
			continue
		}
		seen[e.Key] = struct{}{}
		existing = append(existing, e)
		added++
	}
	return existing, added
}
