// Package event defines leave events and the in-process broker that fans
// them out to connected stream clients.
package event

import "time"

// TypeLeaving is the event type emitted when the door watcher reports that
// someone is about to leave.
const TypeLeaving = "LEAVING"

// Event is a single door event as delivered to stream clients. TS is seconds
// since the Unix epoch, fractional, matching what the embedded client and
// the SSE wire format expect.
type Event struct {
	Type string  `json:"type"`
	TS   float64 `json:"ts"`
}

// Leaving builds a LEAVING event stamped with t.
func Leaving(t time.Time) Event {
	return Event{
		Type: TypeLeaving,
		TS:   float64(t.UnixNano()) / float64(time.Second),
	}
}
