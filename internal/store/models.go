package store

import "time"

// Event is a calendar entry. ID is assigned by the database on insert.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    *string   `json:"location,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Clone returns a copy that shares no pointers with e.
func (e Event) Clone() Event {
	if e.Location != nil {
		loc := *e.Location
		e.Location = &loc
	}
	return e
}

// EventPatch describes a partial update. Nil fields are left unchanged; a
// non-nil empty Location clears it.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
}
