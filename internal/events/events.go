// Package events publishes registry changes and invocations to observers.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind names what happened.
type Kind string

const (
	KindAdded     Kind = "service.added"
	KindRemoved   Kind = "service.removed"
	KindCleared   Kind = "services.cleared"
	KindInvoked   Kind = "service.invoked"
	KindUnmatched Kind = "request.unmatched"
)

// Event is a single observation. ServiceID is uuid.Nil for events not tied
// to one service; Count is only meaningful for KindCleared.
type Event struct {
	Kind      Kind
	ServiceID uuid.UUID
	Method    string
	Path      string
	Count     int
	At        time.Time
}

// Fields flattens the event into string pairs, skipping empty values.
func (e Event) Fields() map[string]any {
	f := map[string]any{
		"kind": string(e.Kind),
		"at":   e.At.UTC().Format(time.RFC3339Nano),
	}
	if e.ServiceID != uuid.Nil {
		f["service_id"] = e.ServiceID.String()
	}
	if e.Method != "" {
		f["method"] = e.Method
	}
	if e.Path != "" {
		f["path"] = e.Path
	}
	if e.Kind == KindCleared {
		f["count"] = strconv.Itoa(e.Count)
	}
	return f
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
