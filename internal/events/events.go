// Package events defines the typed domain events emitted by the API layer
// and a small caller-owned dispatcher that fans them out to subscribers
// (currently the push notification worker pool).
package events

import (
	"log"
	"sync"
)

// Event is the closed set of domain events.
type Event interface {
	isEvent()
}

// ProfileScoped is implemented by events that belong to a single machining
// profile. The notification worker uses it to find interested subscribers.
type ProfileScoped interface {
	Event
	ProfileRef() int64
}

type ToolCreated struct {
	ToolID    int64
	ProfileID int64
	Code      string
}

type ToolUpdated struct {
	ToolID    int64
	ProfileID int64
	Code      string
}

type ToolDeleted struct {
	ToolID    int64
	ProfileID int64
	Code      string
}

// SetPhotoUpdated fires when the shared photo of a tool set changed and was
// propagated to every member.
type SetPhotoUpdated struct {
	ProfileID int64
	Prefix    string
}

type ToolAssigned struct {
	ProfileID  int64
	HeadNumber int
	ToolID     int64
	ToolCode   string
}

type AssignmentCleared struct {
	ProfileID  int64
	HeadNumber int
}

type ProfileCreated struct {
	ProfileID int64
	Name      string
}

type ProfileDeleted struct {
	ProfileID int64
	Name      string
}

type ModeChanged struct {
	Mode string
}

func (ToolCreated) isEvent()       {}
func (ToolUpdated) isEvent()       {}
func (ToolDeleted) isEvent()       {}
func (SetPhotoUpdated) isEvent()   {}
func (ToolAssigned) isEvent()      {}
func (AssignmentCleared) isEvent() {}
func (ProfileCreated) isEvent()    {}
func (ProfileDeleted) isEvent()    {}
func (ModeChanged) isEvent()       {}

func (e ToolCreated) ProfileRef() int64       { return e.ProfileID }
func (e ToolUpdated) ProfileRef() int64       { return e.ProfileID }
func (e ToolDeleted) ProfileRef() int64       { return e.ProfileID }
func (e SetPhotoUpdated) ProfileRef() int64   { return e.ProfileID }
func (e ToolAssigned) ProfileRef() int64      { return e.ProfileID }
func (e AssignmentCleared) ProfileRef() int64 { return e.ProfileID }

// Dispatcher fans events out to subscriber channels. It is owned by main
// and handed to the components that publish or consume events.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers a new buffered subscriber channel.
func (d *Dispatcher) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		close(ch)
		return ch
	}
	d.subs = append(d.subs, ch)
	return ch
}

// Publish delivers an event to every subscriber. Delivery never blocks:
// an event is dropped for a subscriber whose buffer is full.
func (d *Dispatcher) Publish(e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	for _, ch := range d.subs {
		select {
		case ch <- e:
		default:
			log.Printf("events: dropping %T for slow subscriber", e)
		}
	}
}

// Close closes all subscriber channels. Publish becomes a no-op.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for _, ch := range d.subs {
		close(ch)
	}
	d.subs = nil
}
