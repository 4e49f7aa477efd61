// Package state holds the per-session UI state: the event list being shown,
// the open summary and form, the active view, the focused date and the
// sidebar.
package state

import (
	"context"
	"errors"
	"log"
	"sync"

	"gitea.jw6.us/james/calplanner/internal/gateway"
	"gitea.jw6.us/james/calplanner/internal/store"
)

// Deleter removes events from persistent storage.
type Deleter interface {
	DeleteEvent(ctx context.Context, id int64) gateway.Result
}

// EventStore holds the events known to a session and which one, if any, is
// open in the summary panel or the form.
type EventStore struct {
	mu          sync.Mutex
	gw          Deleter
	events      []store.Event
	selected    *store.Event
	summaryOpen bool
	formOpen    bool
}

// EventSnapshot is a point-in-time copy of an EventStore.
type EventSnapshot struct {
	Events      []store.Event
	Selected    *store.Event
	SummaryOpen bool
	FormOpen    bool
}

// Editing reports whether the form is open on an existing event.
func (s EventSnapshot) Editing() bool {
	return s.FormOpen && s.Selected != nil
}

// NewEventStore returns an empty store that deletes through gw.
func NewEventStore(gw Deleter) *EventStore {
	return &EventStore{gw: gw, events: []store.Event{}}
}

// ReplaceAll swaps the whole event list.
func (s *EventStore) ReplaceAll(events []store.Event) {
	copied := make([]store.Event, len(events))
	for i, ev := range events {
		copied[i] = ev.Clone()
	}
	s.mu.Lock()
	s.events = copied
	s.mu.Unlock()
}

// OpenSummary shows ev in the summary panel.
func (s *EventStore) OpenSummary(ev store.Event) {
	ev = ev.Clone()
	s.mu.Lock()
	s.selected = &ev
	s.summaryOpen = true
	s.mu.Unlock()
}

// CloseSummary hides the summary panel and clears the selection.
func (s *EventStore) CloseSummary() {
	s.mu.Lock()
	s.selected = nil
	s.summaryOpen = false
	s.mu.Unlock()
}

// OpenForm opens the event form. A nil ev opens it in create mode. The
// summary panel is always closed when the form opens.
func (s *EventStore) OpenForm(ev *store.Event) {
	var selected *store.Event
	if ev != nil {
		c := ev.Clone()
		selected = &c
	}
	s.mu.Lock()
	s.selected = selected
	s.formOpen = true
	s.summaryOpen = false
	s.mu.Unlock()
}

// CloseForm hides the form. The selection is kept.
func (s *EventStore) CloseForm() {
	s.mu.Lock()
	s.formOpen = false
	s.mu.Unlock()
}

// AddLocal appends ev to the list without touching storage.
func (s *EventStore) AddLocal(ev store.Event) {
	ev = ev.Clone()
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

// UpdateLocal replaces the entry with ev's ID. Unknown IDs are ignored.
func (s *EventStore) UpdateLocal(ev store.Event) {
	ev = ev.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == ev.ID {
			s.events[i] = ev
			break
		}
	}
	if s.selected != nil && s.selected.ID == ev.ID {
		c := ev.Clone()
		s.selected = &c
	}
}

// DeleteRemote deletes the event with id from storage and, once storage no
// longer has it, from the local list. On failure the list is unchanged and
// the gateway's message is returned as the error.
func (s *EventStore) DeleteRemote(ctx context.Context, id int64) error {
	res := s.gw.DeleteEvent(ctx, id)
	if !res.Success && !res.NotFound() {
		log.Printf("[ERROR] delete event %d: %s", id, res.Error)
		return errors.New(res.Error)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	for _, ev := range s.events {
		if ev.ID != id {
			kept = append(kept, ev)
		}
	}
	s.events = kept
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
		s.summaryOpen = false
		s.formOpen = false
	}
	return nil
}

// Find returns a copy of the event with id.
func (s *EventStore) Find(id int64) (store.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return ev.Clone(), true
		}
	}
	return store.Event{}, false
}

// Snapshot returns a deep copy of the current state.
func (s *EventStore) Snapshot() EventSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := EventSnapshot{
		Events:      make([]store.Event, len(s.events)),
		SummaryOpen: s.summaryOpen,
		FormOpen:    s.formOpen,
	}
	for i, ev := range s.events {
		out.Events[i] = ev.Clone()
	}
	if s.selected != nil {
		c := s.selected.Clone()
		out.Selected = &c
	}
	return out
}
