package state

import (
	"context"
	"time"
)

// Session bundles the stores behind one browser session.
type Session struct {
	ID      string
	Events  *EventStore
	View    *ViewStore
	Date    *DateStore
	Sidebar *SidebarStore
}

// NewSession returns fresh stores focused on today.
func NewSession(id string, gw Deleter, today time.Time, weekStart time.Weekday) *Session {
	return &Session{
		ID:      id,
		Events:  NewEventStore(gw),
		View:    NewViewStore(),
		Date:    NewDateStore(today, weekStart),
		Sidebar: NewSidebarStore(),
	}
}

type sessionKey struct{}

// WithSession attaches sess to ctx.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// FromContext returns the session attached by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*Session)
	return sess, ok && sess != nil
}
