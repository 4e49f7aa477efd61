package state

import (
	"sync"
	"time"

	"gitea.jw6.us/james/calplanner/internal/grid"
)

// MaxMonthIndex bounds month indices to ten thousand years either side of
// the base year.
const MaxMonthIndex = 12 * 10000

// DateStore tracks the focused day and the month shown in the month view.
// Month indices count from January of the base date's year.
type DateStore struct {
	mu        sync.RWMutex
	base      time.Time
	weekStart time.Weekday

	selected   time.Time
	monthIndex int
	weeks      [][]time.Time
}

// DateSnapshot is a point-in-time copy of a DateStore.
type DateSnapshot struct {
	Selected   time.Time
	MonthIndex int
	Month      time.Time
	Weeks      [][]time.Time
}

// NewDateStore focuses today and shows the current month.
func NewDateStore(today time.Time, weekStart time.Weekday) *DateStore {
	s := &DateStore{base: today, weekStart: weekStart, selected: today}
	s.SetMonth(grid.IndexOf(today, today))
	return s
}

// SetDate moves the focused day. The month grid is left alone.
func (s *DateStore) SetDate(t time.Time) {
	s.mu.Lock()
	s.selected = t.In(s.base.Location())
	s.mu.Unlock()
}

// SetMonth shows the month at index, clamped to MaxMonthIndex either way.
func (s *DateStore) SetMonth(index int) {
	index = clampMonth(index)
	weeks := grid.Month(s.base, index, s.weekStart)
	s.mu.Lock()
	s.monthIndex = index
	s.weeks = weeks
	s.mu.Unlock()
}

// SetMonthOf shows the month containing t.
func (s *DateStore) SetMonthOf(t time.Time) {
	s.SetMonth(grid.IndexOf(s.base, t))
}

// ShiftMonth moves the month view by delta months. The result is clamped
// like SetMonth.
func (s *DateStore) ShiftMonth(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.monthIndex
	switch {
	case delta > MaxMonthIndex-index:
		index = MaxMonthIndex
	case delta < -MaxMonthIndex-index:
		index = -MaxMonthIndex
	default:
		index += delta
	}
	s.monthIndex = index
	s.weeks = grid.Month(s.base, index, s.weekStart)
}

// Today focuses now and shows its month.
func (s *DateStore) Today(now time.Time) {
	now = now.In(s.base.Location())
	index := grid.IndexOf(s.base, now)
	weeks := grid.Month(s.base, index, s.weekStart)
	s.mu.Lock()
	s.selected = now
	s.monthIndex = index
	s.weeks = weeks
	s.mu.Unlock()
}

func (s *DateStore) WeekStart() time.Weekday { return s.weekStart }

func (s *DateStore) Location() *time.Location { return s.base.Location() }

// Snapshot returns the current date state with a copied grid.
func (s *DateStore) Snapshot() DateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	weeks := make([][]time.Time, len(s.weeks))
	for i, w := range s.weeks {
		weeks[i] = append([]time.Time(nil), w...)
	}
	return DateSnapshot{
		Selected:   s.selected,
		MonthIndex: s.monthIndex,
		Month:      grid.MonthStart(s.base, s.monthIndex),
		Weeks:      weeks,
	}
}

func clampMonth(index int) int {
	if index > MaxMonthIndex {
		return MaxMonthIndex
	}
	if index < -MaxMonthIndex {
		return -MaxMonthIndex
	}
	return index
}
