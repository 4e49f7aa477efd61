package gateway

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"gitea.jw6.us/james/calplanner/internal/store"
)

type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]store.Event

	createErr error
	listErr   error
	updateErr error
	deleteErr error

	creates   int
	listCalls int
}

func newFakeRepo(events ...store.Event) *fakeRepo {
	r := &fakeRepo{nextID: 1, events: map[int64]store.Event{}}
	for _, ev := range events {
		r.events[ev.ID] = ev
		if ev.ID >= r.nextID {
			r.nextID = ev.ID + 1
		}
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, ev store.Event) (*store.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.creates++
	ev.ID = r.nextID
	r.nextID++
	r.events[ev.ID] = ev
	out := ev.Clone()
	return &out, nil
}

func (r *fakeRepo) List(_ context.Context) ([]store.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]store.Event, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, patch store.EventPatch) (*store.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	ev, ok := r.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	ev = applyPatch(ev, patch)
	r.events[id] = ev
	out := ev.Clone()
	return &out, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

// applyPatch mirrors the repository's UPDATE semantics.
func applyPatch(ev store.Event, p store.EventPatch) store.Event {
	ev = ev.Clone()
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Date != nil {
		ev.Date = *p.Date
	}
	if p.Location != nil {
		if *p.Location == "" {
			ev.Location = nil
		} else {
			loc := *p.Location
			ev.Location = &loc
		}
	}
	return ev
}

func strPtr(s string) *string { return &s }

func TestCreateEventStandup(t *testing.T) {
	repo := newFakeRepo()
	gw := New(repo, time.UTC)

	res := gw.CreateEvent(context.Background(), NewEvent{
		Title:       "Standup",
		Description: "Daily sync",
		Date:        "2024-06-10",
		Time:        "09:00",
	})
	if !res.Success || res.Error != "" {
		t.Fatalf("CreateEvent() = %+v", res)
	}
	if res.Event == nil || res.Event.ID == 0 {
		t.Fatalf("CreateEvent() returned no stored event")
	}

	events := gw.ListEvents(context.Background())
	if len(events) != 1 {
		t.Fatalf("ListEvents() = %d events, want 1", len(events))
	}
	want := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	if events[0].Title != "Standup" || !events[0].Date.Equal(want) {
		t.Fatalf("ListEvents()[0] = %+v", events[0])
	}
}

func TestCreateEventValidation(t *testing.T) {
	tests := []struct {
		name string
		in   NewEvent
		want string
	}{
		{
			name: "empty title",
			in:   NewEvent{Title: "", Description: "x", Date: "2024-06-10", Time: "09:00"},
			want: MsgFieldsRequired,
		},
		{
			name: "whitespace description",
			in:   NewEvent{Title: "x", Description: "   ", Date: "2024-06-10", Time: "09:00"},
			want: MsgFieldsRequired,
		},
		{
			name: "missing time",
			in:   NewEvent{Title: "x", Description: "y", Date: "2024-06-10"},
			want: MsgFieldsRequired,
		},
		{
			name: "bad date",
			in:   NewEvent{Title: "x", Description: "y", Date: "2024-13-40", Time: "09:00"},
			want: MsgInvalidDate,
		},
		{
			name: "bad time",
			in:   NewEvent{Title: "x", Description: "y", Date: "2024-06-10", Time: "25:99"},
			want: MsgInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			gw := New(repo, time.UTC)

			res := gw.CreateEvent(context.Background(), tt.in)
			if res.Success || res.Error != tt.want {
				t.Fatalf("CreateEvent() = %+v, want error %q", res, tt.want)
			}
			if repo.creates != 0 {
				t.Fatalf("storage was touched %d times", repo.creates)
			}
		})
	}
}

func TestCreateEventStorageFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("pq: connection refused")
	gw := New(repo, time.UTC)

	res := gw.CreateEvent(context.Background(), NewEvent{Title: "a", Description: "b", Date: "2024-06-10", Time: "09:00"})
	if res.Success || res.Error != MsgCreateFailed {
		t.Fatalf("CreateEvent() = %+v", res)
	}
}

func TestCreateEventTrimsAndKeepsLocation(t *testing.T) {
	repo := newFakeRepo()
	gw := New(repo, time.UTC)

	res := gw.CreateEvent(context.Background(), NewEvent{
		Title: "  Lunch ", Description: " with team ", Date: "2024-06-10", Time: "12:30", Location: " Cafe ",
	})
	if !res.Success {
		t.Fatalf("CreateEvent() = %+v", res)
	}
	if res.Event.Title != "Lunch" || res.Event.Description != "with team" {
		t.Errorf("fields not trimmed: %+v", res.Event)
	}
	if res.Event.Location == nil || *res.Event.Location != "Cafe" {
		t.Errorf("location = %v", res.Event.Location)
	}
}

func TestCombineDateTimeUsesLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	got, err := CombineDateTime("2024-06-10", "09:15", loc)
	if err != nil {
		t.Fatalf("CombineDateTime() error: %v", err)
	}
	if got.Hour() != 9 || got.Minute() != 15 || got.Location() != loc {
		t.Fatalf("CombineDateTime() = %v", got)
	}
	if !got.Equal(time.Date(2024, 6, 10, 14, 15, 0, 0, time.UTC)) {
		t.Fatalf("CombineDateTime() = %v, want 14:15 UTC", got.UTC())
	}
}

func TestListEventsFailureIsEmpty(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = errors.New("timeout")
	gw := New(repo, time.UTC)

	events := gw.ListEvents(context.Background())
	if events == nil || len(events) != 0 {
		t.Fatalf("ListEvents() = %#v, want empty list", events)
	}
}

func TestListEventsOrderedNewestFirst(t *testing.T) {
	repo := newFakeRepo(
		store.Event{ID: 1, Title: "old", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		store.Event{ID: 2, Title: "new", Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	)
	gw := New(repo, time.UTC)

	events := gw.ListEvents(context.Background())
	if len(events) != 2 || events[0].Title != "new" || events[1].Title != "old" {
		t.Fatalf("ListEvents() = %+v", events)
	}
}

func TestListEventsCacheInvalidatedByMutations(t *testing.T) {
	repo := newFakeRepo(store.Event{ID: 1, Title: "a", Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)})
	gw := New(repo, time.UTC)
	ctx := context.Background()

	gw.ListEvents(ctx)
	gw.ListEvents(ctx)
	if repo.listCalls != 1 {
		t.Fatalf("list calls = %d, want 1 (cached)", repo.listCalls)
	}

	if res := gw.UpdateEvent(ctx, 1, store.EventPatch{Title: strPtr("b")}); !res.Success {
		t.Fatalf("UpdateEvent() = %+v", res)
	}
	events := gw.ListEvents(ctx)
	if repo.listCalls != 2 {
		t.Fatalf("list calls = %d, want 2 after update", repo.listCalls)
	}
	if events[0].Title != "b" {
		t.Fatalf("stale list after update: %+v", events)
	}

	// Failed mutations leave the cache in place.
	gw.DeleteEvent(ctx, 99)
	gw.ListEvents(ctx)
	if repo.listCalls != 2 {
		t.Fatalf("list calls = %d, want 2 after failed delete", repo.listCalls)
	}

	gw.DeleteEvent(ctx, 1)
	if got := gw.ListEvents(ctx); len(got) != 0 {
		t.Fatalf("ListEvents() after delete = %+v", got)
	}
}

func TestListEventsReturnsCopies(t *testing.T) {
	repo := newFakeRepo(store.Event{ID: 1, Title: "a", Location: strPtr("Room"), Date: time.Now()})
	gw := New(repo, time.UTC)
	ctx := context.Background()

	first := gw.ListEvents(ctx)
	first[0].Title = "mutated"
	*first[0].Location = "mutated"

	second := gw.ListEvents(ctx)
	if second[0].Title != "a" || *second[0].Location != "Room" {
		t.Fatalf("cache shared memory with caller: %+v", second[0])
	}
}

func TestUpdateEvent(t *testing.T) {
	when := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		id        int64
		patch     store.EventPatch
		updateErr error
		want      Result
	}{
		{name: "title only", id: 1, patch: store.EventPatch{Title: strPtr("X")}, want: Result{Success: true}},
		{name: "blank title", id: 1, patch: store.EventPatch{Title: strPtr("  ")}, want: Result{Error: MsgTitleRequired}},
		{name: "missing id", id: 99, patch: store.EventPatch{Title: strPtr("X")}, want: Result{Error: MsgNotFound}},
		{name: "storage failure", id: 1, patch: store.EventPatch{Title: strPtr("X")}, updateErr: errors.New("boom"), want: Result{Error: MsgUpdateFailed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(store.Event{ID: 1, Title: "Standup", Description: "Daily sync", Date: when})
			repo.updateErr = tt.updateErr
			gw := New(repo, time.UTC)

			res := gw.UpdateEvent(context.Background(), tt.id, tt.patch)
			if res.Success != tt.want.Success || res.Error != tt.want.Error {
				t.Fatalf("UpdateEvent() = %+v, want %+v", res, tt.want)
			}
			if tt.want.Success {
				if res.Event.Title != "X" || res.Event.Description != "Daily sync" || !res.Event.Date.Equal(when) {
					t.Fatalf("partial update changed other fields: %+v", res.Event)
				}
			}
		})
	}
}

func TestDeleteEvent(t *testing.T) {
	tests := []struct {
		name      string
		id        int64
		deleteErr error
		want      Result
	}{
		{name: "deleted", id: 1, want: Result{Success: true}},
		{name: "missing id", id: 2, want: Result{Error: MsgNotFound}},
		{name: "storage failure", id: 1, deleteErr: errors.New("boom"), want: Result{Error: MsgDeleteFailed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(store.Event{ID: 1, Title: "a", Date: time.Now()})
			repo.deleteErr = tt.deleteErr
			gw := New(repo, time.UTC)

			res := gw.DeleteEvent(context.Background(), tt.id)
			if res.Success != tt.want.Success || res.Error != tt.want.Error {
				t.Fatalf("DeleteEvent() = %+v, want %+v", res, tt.want)
			}
			if res.NotFound() != (tt.want.Error == MsgNotFound) {
				t.Fatalf("NotFound() = %v", res.NotFound())
			}
		})
	}
}

func TestMutationsSurviveCanceledContext(t *testing.T) {
	repo := newFakeRepo()
	gw := New(repo, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := gw.CreateEvent(ctx, NewEvent{Title: "a", Description: "b", Date: "2024-06-10", Time: "09:00"})
	if !res.Success {
		t.Fatalf("CreateEvent() with canceled context = %+v", res)
	}
}
