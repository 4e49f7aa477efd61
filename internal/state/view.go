package state

import (
	"strings"
	"sync"
)

// View is the calendar layout shown on the main page.
type View string

const (
	ViewMonth View = "month"
	ViewWeek  View = "week"
	ViewDay   View = "day"
)

// ParseView maps a request value onto a View.
func ParseView(s string) (View, bool) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewMonth:
		return ViewMonth, true
	case ViewWeek:
		return ViewWeek, true
	case ViewDay:
		return ViewDay, true
	}
	return "", false
}

// ViewStore holds the active view. It starts on the month view.
type ViewStore struct {
	mu   sync.RWMutex
	mode View
}

func NewViewStore() *ViewStore {
	return &ViewStore{mode: ViewMonth}
}

// SetView switches the active view.
func (s *ViewStore) SetView(v View) {
	s.mu.Lock()
	s.mode = v
	s.mu.Unlock()
}

func (s *ViewStore) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}
