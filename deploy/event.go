package deploy

import "github.com/wpdeploy/target/types"

// EventType is the kind of a progress event
type EventType string

const (
	EventStarted   EventType = "started"
	EventItem      EventType = "item"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// Event is sent to the Reporter on every state entered and every manifest
// entry transferred
type Event struct {
	Type  EventType
	State State
	Plan  Plan

	// set on item events
	Entry types.Entry
	Done  int
	Total int

	// set on failed events
	Err error
}

// Reporter receives the progress of a run
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to a Reporter
type ReporterFunc func(Event)

// Report calls f(e)
func (f ReporterFunc) Report(e Event) { f(e) }

type discard struct{}

func (discard) Report(Event) {}
