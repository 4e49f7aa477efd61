package ui

import (
	"context"
	"net/http"
	"strings"
	"time"

	"gitea.jw6.us/james/calplanner/internal/gateway"
	"gitea.jw6.us/james/calplanner/internal/http/errors"
	"gitea.jw6.us/james/calplanner/internal/state"
	"gitea.jw6.us/james/calplanner/internal/store"
)

// findEvent looks id up in the session, refreshing from storage once when
// the session has not seen it yet.
func (h *Handler) findEvent(ctx context.Context, sess *state.Session, id int64) (store.Event, bool) {
	if ev, ok := sess.Events.Find(id); ok {
		return ev, true
	}
	sess.Events.ReplaceAll(h.gw.ListEvents(ctx))
	return sess.Events.Find(id)
}

// NewEventForm opens the form in create mode, optionally on ?date=.
func (h *Handler) NewEventForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, h.location())
		if err != nil {
			errors.BadRequestError(w, r, err, "invalid date")
			return
		}
		sess.Date.SetDate(day)
	}
	sess.Events.OpenForm(nil)
	h.redirect(w, r, "/", nil)
}

// ShowEvent opens the summary panel for an event.
func (h *Handler) ShowEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := eventID(r)
	if err != nil {
		errors.BadRequestError(w, r, err, "invalid event id")
		return
	}
	ev, ok := h.findEvent(r.Context(), sess, id)
	if !ok {
		errors.NotFound(w, r, "event")
		return
	}
	sess.Events.OpenSummary(ev)
	h.redirect(w, r, "/", nil)
}

func (h *Handler) CloseSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Events.CloseSummary()
	h.redirect(w, r, "/", nil)
}

// EditEventForm opens the form on an existing event.
func (h *Handler) EditEventForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := eventID(r)
	if err != nil {
		errors.BadRequestError(w, r, err, "invalid event id")
		return
	}
	ev, ok := h.findEvent(r.Context(), sess, id)
	if !ok {
		errors.NotFound(w, r, "event")
		return
	}
	sess.Events.OpenForm(&ev)
	h.redirect(w, r, "/", nil)
}

func (h *Handler) CloseForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Events.CloseForm()
	h.redirect(w, r, "/", nil)
}

// CreateEvent stores a new event from the form. Rejected input re-renders
// the page with the form still open.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		errors.BadRequestError(w, r, err, "invalid form")
		return
	}

	in := gateway.NewEvent{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Location:    r.FormValue("location"),
	}
	res := h.gw.CreateEvent(r.Context(), in)
	if !res.Success {
		h.renderMain(w, r, sess, http.StatusUnprocessableEntity, &eventForm{
			Open:        true,
			Title:       in.Title,
			Description: in.Description,
			Date:        in.Date,
			Time:        in.Time,
			Location:    in.Location,
			Error:       res.Error,
		})
		return
	}

	sess.Events.AddLocal(*res.Event)
	sess.Events.CloseForm()
	h.redirect(w, r, "/", map[string]string{"status": "Event created"})
}

// UpdateEvent saves the edit form. Title, date and time are required; an
// empty description or location clears the stored value.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := eventID(r)
	if err != nil {
		errors.BadRequestError(w, r, err, "invalid event id")
		return
	}
	if err := r.ParseForm(); err != nil {
		errors.BadRequestError(w, r, err, "invalid form")
		return
	}

	form := &eventForm{
		Open:        true,
		Editing:     true,
		ID:          id,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Location:    r.FormValue("location"),
	}
	if strings.TrimSpace(form.Date) == "" || strings.TrimSpace(form.Time) == "" {
		form.Error = gateway.MsgFieldsRequired
		h.renderMain(w, r, sess, http.StatusUnprocessableEntity, form)
		return
	}
	when, err := gateway.CombineDateTime(form.Date, form.Time, h.location())
	if err != nil {
		form.Error = gateway.MsgInvalidDate
		h.renderMain(w, r, sess, http.StatusUnprocessableEntity, form)
		return
	}

	description := strings.TrimSpace(form.Description)
	location := strings.TrimSpace(form.Location)
	res := h.gw.UpdateEvent(r.Context(), id, store.EventPatch{
		Title:       &form.Title,
		Description: &description,
		Date:        &when,
		Location:    &location,
	})
	switch {
	case res.NotFound():
		sess.Events.CloseForm()
		h.redirect(w, r, "/", map[string]string{"error": res.Error})
		return
	case !res.Success:
		form.Error = res.Error
		h.renderMain(w, r, sess, http.StatusUnprocessableEntity, form)
		return
	}

	sess.Events.UpdateLocal(*res.Event)
	sess.Events.CloseForm()
	h.redirect(w, r, "/", map[string]string{"status": "Event updated"})
}

// DeleteEvent removes an event. Failures are reported as a flash error.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := eventID(r)
	if err != nil {
		errors.BadRequestError(w, r, err, "invalid event id")
		return
	}
	if err := sess.Events.DeleteRemote(r.Context(), id); err != nil {
		h.redirect(w, r, "/", map[string]string{"error": err.Error()})
		return
	}
	h.redirect(w, r, "/", map[string]string{"status": "Event deleted"})
}
