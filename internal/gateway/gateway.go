// Package gateway turns calendar CRUD intents into repository calls. Storage
// failures never cross this boundary as Go errors: mutations report a Result
// and reads fall back to an empty list.
package gateway

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"gitea.jw6.us/james/calplanner/internal/metrics"
	"gitea.jw6.us/james/calplanner/internal/store"
)

// Messages returned to callers in Result.Error. Storage detail is only logged.
const (
	MsgFieldsRequired = "All fields are required"
	MsgInvalidDate    = "Invalid date or time"
	MsgTitleRequired  = "Title is required"
	MsgNotFound       = "Event not found"
	MsgCreateFailed   = "Failed to create event"
	MsgUpdateFailed   = "Failed to update event"
	MsgDeleteFailed   = "Failed to delete event"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Result is the outcome of a mutation. Exactly one of Success and Error is
// set. Event carries the stored row after a successful create or update.
type Result struct {
	Success bool         `json:"success,omitempty"`
	Error   string       `json:"error,omitempty"`
	Event   *store.Event `json:"-"`
}

// NotFound reports whether the mutation targeted an id with no row.
func (r Result) NotFound() bool { return r.Error == MsgNotFound }

func failure(msg string) Result { return Result{Error: msg} }

// NewEvent is the raw input of the create form. Date is YYYY-MM-DD and Time
// is HH:MM, both interpreted in the gateway's location.
type NewEvent struct {
	Title       string
	Description string
	Date        string
	Time        string
	Location    string
}

// Gateway mediates all event persistence and caches the most recent list.
type Gateway struct {
	events store.EventRepository
	loc    *time.Location

	mu         sync.Mutex
	cached     []store.Event
	cacheValid bool
	generation uint64
}

// New returns a gateway over events. Dates are combined in loc.
func New(events store.EventRepository, loc *time.Location) *Gateway {
	if loc == nil {
		loc = time.UTC
	}
	return &Gateway{events: events, loc: loc}
}

// CombineDateTime joins a YYYY-MM-DD date and an HH:MM time into one
// timestamp in loc. Seconds are always zero.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, err
	}
	hm, err := time.Parse(timeLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, loc), nil
}

// CreateEvent validates the form input and inserts a new event.
func (g *Gateway) CreateEvent(ctx context.Context, in NewEvent) Result {
	const op = "create"

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" || strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Time) == "" {
		metrics.ObserveGateway(op, "invalid")
		return failure(MsgFieldsRequired)
	}
	when, err := CombineDateTime(in.Date, in.Time, g.loc)
	if err != nil {
		metrics.ObserveGateway(op, "invalid")
		return failure(MsgInvalidDate)
	}

	ev := store.Event{Title: title, Description: description, Date: when}
	if loc := strings.TrimSpace(in.Location); loc != "" {
		ev.Location = &loc
	}

	created, err := g.events.Create(context.WithoutCancel(ctx), ev)
	if err != nil {
		logError(ctx, "error creating event", err)
		metrics.ObserveGateway(op, "error")
		return failure(MsgCreateFailed)
	}

	g.invalidate()
	metrics.ObserveGateway(op, "ok")
	return Result{Success: true, Event: created}
}

// ListEvents returns every event ordered by date, newest first. A read
// failure is logged and yields an empty list.
func (g *Gateway) ListEvents(ctx context.Context) []store.Event {
	g.mu.Lock()
	if g.cacheValid {
		out := cloneEvents(g.cached)
		g.mu.Unlock()
		return out
	}
	gen := g.generation
	g.mu.Unlock()

	events, err := g.events.List(ctx)
	if err != nil {
		logError(ctx, "error fetching events", err)
		metrics.ObserveGateway("list", "error")
		return []store.Event{}
	}
	metrics.ObserveGateway("list", "ok")

	g.mu.Lock()
	// A mutation that finished while we were reading makes this list stale.
	if gen == g.generation {
		g.cached = cloneEvents(events)
		g.cacheValid = true
	}
	g.mu.Unlock()
	return events
}

// UpdateEvent applies patch to the event with id.
func (g *Gateway) UpdateEvent(ctx context.Context, id int64, patch store.EventPatch) Result {
	const op = "update"

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			metrics.ObserveGateway(op, "invalid")
			return failure(MsgTitleRequired)
		}
		patch.Title = &title
	}

	updated, err := g.events.Update(context.WithoutCancel(ctx), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		metrics.ObserveGateway(op, "not_found")
		return failure(MsgNotFound)
	}
	if err != nil {
		logError(ctx, "error updating event", err)
		metrics.ObserveGateway(op, "error")
		return failure(MsgUpdateFailed)
	}

	g.invalidate()
	metrics.ObserveGateway(op, "ok")
	return Result{Success: true, Event: updated}
}

// DeleteEvent removes the event with id.
func (g *Gateway) DeleteEvent(ctx context.Context, id int64) Result {
	const op = "delete"

	err := g.events.Delete(context.WithoutCancel(ctx), id)
	if errors.Is(err, store.ErrNotFound) {
		metrics.ObserveGateway(op, "not_found")
		return failure(MsgNotFound)
	}
	if err != nil {
		logError(ctx, "error deleting event", err)
		metrics.ObserveGateway(op, "error")
		return failure(MsgDeleteFailed)
	}

	g.invalidate()
	metrics.ObserveGateway(op, "ok")
	return Result{Success: true}
}

func (g *Gateway) invalidate() {
	g.mu.Lock()
	g.cached = nil
	g.cacheValid = false
	g.generation++
	g.mu.Unlock()
}

func cloneEvents(events []store.Event) []store.Event {
	out := make([]store.Event, len(events))
	for i, ev := range events {
		out[i] = ev.Clone()
	}
	return out
}

func logError(ctx context.Context, message string, err error) {
	if requestID := metrics.RequestIDFromContext(ctx); requestID != "" {
		log.Printf("[ERROR] RequestID=%s: %s: %v", requestID, message, err)
		return
	}
	log.Printf("[ERROR] %s: %v", message, err)
}
