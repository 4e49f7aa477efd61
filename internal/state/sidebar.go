package state

import "sync"

// SidebarStore tracks whether the sidebar is expanded. It starts open.
type SidebarStore struct {
	mu   sync.Mutex
	open bool
}

func NewSidebarStore() *SidebarStore {
	return &SidebarStore{open: true}
}

// Toggle flips the sidebar and returns the new state.
func (s *SidebarStore) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = !s.open
	return s.open
}

func (s *SidebarStore) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}
