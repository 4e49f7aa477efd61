package ui

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"gitea.jw6.us/james/calplanner/internal/grid"
	"gitea.jw6.us/james/calplanner/internal/http/errors"
	"gitea.jw6.us/james/calplanner/internal/state"
	"gitea.jw6.us/james/calplanner/internal/store"
)

const (
	dateLayout    = "2006-01-02"
	clockLayout   = "15:04"
	defaultClock  = "09:00"
	upcomingLimit = 5
)

type dayCell struct {
	Date     time.Time
	InMonth  bool
	Today    bool
	Selected bool
	Events   []store.Event
}

type hourRow struct {
	Hour  time.Time
	Cells []dayCell
}

// eventForm is the state of the create/edit form as rendered.
type eventForm struct {
	Open        bool
	Editing     bool
	ID          int64
	Title       string
	Description string
	Date        string
	Time        string
	Location    string
	Error       string
}

// Index renders the calendar in the session's current view.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.renderMain(w, r, sess, http.StatusOK, nil)
}

// renderMain refreshes the session's events and renders the main page. A
// non-nil form replaces the form derived from the session, which is how
// rejected submissions keep their input and error.
func (h *Handler) renderMain(w http.ResponseWriter, r *http.Request, sess *state.Session, status int, form *eventForm) {
	sess.Events.ReplaceAll(h.gw.ListEvents(r.Context()))

	events := sess.Events.Snapshot()
	localize(&events, h.location())
	dates := sess.Date.Snapshot()
	view := sess.View.View()
	today := h.today()
	weekStart := sess.Date.WeekStart()

	data := map[string]any{
		"View":          string(view),
		"Views":         []state.View{state.ViewMonth, state.ViewWeek, state.ViewDay},
		"SidebarOpen":   sess.Sidebar.Open(),
		"Selected":      dates.Selected,
		"MonthIndex":    dates.MonthIndex,
		"Today":         today,
		"EventCount":    len(events.Events),
		"Upcoming":      upcoming(events.Events, today, upcomingLimit),
		"SummaryOpen":   events.SummaryOpen,
		"SelectedEvent": events.Selected,
	}

	switch view {
	case state.ViewWeek:
		days := grid.Week(dates.Selected, weekStart)
		data["Title"] = fmt.Sprintf("%s - %s", days[0].Format("Jan 2"), days[6].Format("Jan 2, 2006"))
		data["DayHeaders"] = dayHeaders(days, dates.Selected, today)
		data["Hours"] = hourRows(days, events.Events)
		data["PrevDate"] = dates.Selected.AddDate(0, 0, -7).Format(dateLayout)
		data["NextDate"] = dates.Selected.AddDate(0, 0, 7).Format(dateLayout)
	case state.ViewDay:
		days := []time.Time{dates.Selected}
		data["Title"] = dates.Selected.Format("Monday, January 2, 2006")
		data["DayHeaders"] = dayHeaders(days, dates.Selected, today)
		data["Hours"] = hourRows(days, events.Events)
		data["PrevDate"] = dates.Selected.AddDate(0, 0, -1).Format(dateLayout)
		data["NextDate"] = dates.Selected.AddDate(0, 0, 1).Format(dateLayout)
	default:
		data["Title"] = dates.Month.Format("January 2006")
		data["Weekdays"] = weekdayNames(weekStart)
		data["Weeks"] = monthCells(dates, today, events.Events)
	}

	if form == nil {
		form = h.formFromSnapshot(events, dates.Selected)
	}
	data["Form"] = form

	h.render(w, r, status, "main.html", h.withFlash(r, data))
}

func (h *Handler) formFromSnapshot(events state.EventSnapshot, selected time.Time) *eventForm {
	if !events.FormOpen {
		return &eventForm{}
	}
	if !events.Editing() {
		return &eventForm{Open: true, Date: selected.Format(dateLayout), Time: defaultClock}
	}

	ev := events.Selected
	when := ev.Date.In(h.location())
	form := &eventForm{
		Open:        true,
		Editing:     true,
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Date:        when.Format(dateLayout),
		Time:        when.Format(clockLayout),
	}
	if ev.Location != nil {
		form.Location = *ev.Location
	}
	return form
}

// SetView switches between the month, week and day layouts.
func (h *Handler) SetView(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		errors.BadRequestError(w, r, err, "invalid form")
		return
	}
	v, ok := state.ParseView(r.FormValue("view"))
	if !ok {
		errors.BadRequestError(w, r, fmt.Errorf("unknown view %q", r.FormValue("view")), "invalid view")
		return
	}

	sess.View.SetView(v)
	h.persist(w, r, sess)
	h.redirect(w, r, "/", nil)
}

// SetDate focuses a day. An optional view field switches layout in the same
// request so a month cell can open its day.
func (h *Handler) SetDate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		errors.BadRequestError(w, r, err, "invalid form")
		return
	}
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(r.FormValue("date")), h.location())
	if err != nil {
		errors.BadRequestError(w, r, err, "invalid date")
		return
	}
	var view state.View
	if raw := r.FormValue("view"); raw != "" {
		if view, ok = state.ParseView(raw); !ok {
			errors.BadRequestError(w, r, fmt.Errorf("unknown view %q", raw), "invalid view")
			return
		}
	}

	sess.Date.SetDate(day)
	if view != "" {
		sess.View.SetView(view)
		h.persist(w, r, sess)
	}
	h.redirect(w, r, "/", nil)
}

// SetMonth changes the month shown. The form carries exactly one of today,
// delta (months relative to the current one) or index.
func (h *Handler) SetMonth(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		errors.BadRequestError(w, r, err, "invalid form")
		return
	}

	switch {
	case r.FormValue("today") != "":
		sess.Date.Today(h.today())
	case r.FormValue("delta") != "":
		delta, err := monthOffset(r.FormValue("delta"))
		if err != nil {
			errors.BadRequestError(w, r, err, "invalid month delta")
			return
		}
		sess.Date.ShiftMonth(delta)
	case r.FormValue("index") != "":
		index, err := monthOffset(r.FormValue("index"))
		if err != nil {
			errors.BadRequestError(w, r, err, "invalid month index")
			return
		}
		sess.Date.SetMonth(index)
	default:
		errors.BadRequestError(w, r, fmt.Errorf("no month field"), "month is required")
		return
	}

	h.persist(w, r, sess)
	h.redirect(w, r, "/", nil)
}

// ToggleSidebar opens or closes the sidebar.
func (h *Handler) ToggleSidebar(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Sidebar.Toggle()
	h.redirect(w, r, "/", nil)
}

// monthOffset parses a month index or delta, rejecting values the date
// store would have to clamp.
func monthOffset(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n > state.MaxMonthIndex || n < -state.MaxMonthIndex {
		return 0, fmt.Errorf("month offset %d out of range", n)
	}
	return n, nil
}

func monthCells(dates state.DateSnapshot, today time.Time, events []store.Event) [][]dayCell {
	weeks := make([][]dayCell, len(dates.Weeks))
	for i, week := range dates.Weeks {
		row := make([]dayCell, len(week))
		for j, day := range week {
			row[j] = dayCell{
				Date:     day,
				InMonth:  day.Month() == dates.Month.Month(),
				Today:    grid.SameDay(day, today),
				Selected: grid.SameDay(day, dates.Selected),
				Events:   eventsWhere(events, func(t time.Time) bool { return grid.SameDay(day, t) }),
			}
		}
		weeks[i] = row
	}
	return weeks
}

func dayHeaders(days []time.Time, selected, today time.Time) []dayCell {
	out := make([]dayCell, len(days))
	for i, day := range days {
		out[i] = dayCell{
			Date:     day,
			InMonth:  true,
			Today:    grid.SameDay(day, today),
			Selected: grid.SameDay(day, selected),
		}
	}
	return out
}

func hourRows(days []time.Time, events []store.Event) []hourRow {
	slots := make([][]time.Time, len(days))
	for i, day := range days {
		slots[i] = grid.Hours(day)
	}

	rows := make([]hourRow, 24)
	for hr := range rows {
		rows[hr].Hour = slots[0][hr]
		rows[hr].Cells = make([]dayCell, len(days))
		for i := range days {
			slot := slots[i][hr]
			rows[hr].Cells[i] = dayCell{
				Date:    slot,
				InMonth: true,
				Events:  eventsWhere(events, func(t time.Time) bool { return grid.SameHour(slot, t) }),
			}
		}
	}
	return rows
}

// localize moves event dates into loc for display.
func localize(events *state.EventSnapshot, loc *time.Location) {
	for i := range events.Events {
		events.Events[i].Date = events.Events[i].Date.In(loc)
	}
	if events.Selected != nil {
		events.Selected.Date = events.Selected.Date.In(loc)
	}
}

// eventsWhere returns the events whose date satisfies match, earliest first.
func eventsWhere(events []store.Event, match func(time.Time) bool) []store.Event {
	var out []store.Event
	for _, ev := range events {
		if match(ev.Date) {
			out = append(out, ev)
		}
	}
	sortByDate(out)
	return out
}

func upcoming(events []store.Event, now time.Time, limit int) []store.Event {
	var out []store.Event
	for _, ev := range events {
		if !ev.Date.Before(now) {
			out = append(out, ev)
		}
	}
	sortByDate(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortByDate(events []store.Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
}

func weekdayNames(weekStart time.Weekday) []string {
	names := make([]string, 7)
	for i := range names {
		names[i] = time.Weekday((int(weekStart) + i) % 7).String()[:3]
	}
	return names
}
