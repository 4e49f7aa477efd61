package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"gitea.jw6.us/james/calplanner/internal/http/errors"
	"gitea.jw6.us/james/calplanner/internal/store"
	"gitea.jw6.us/james/calplanner/internal/ui/utils"
)

// MaxUploadSize caps the request body of an .ics upload.
const MaxUploadSize = 10 << 20

// ExportICS downloads every event as an iCalendar file.
func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.gw.ExportICS(r.Context(), &buf); err != nil {
		errors.InternalError(w, r, err, "export calendar")
		return
	}

	etag := `"` + utils.GenerateETag(buf.String()) + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calplanner.ics"`)
	w.Header().Set("ETag", etag)
	_, _ = buf.WriteTo(w)
}

// ImportICS creates events from an uploaded .ics file.
func (h *Handler) ImportICS(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.redirect(w, r, "/", map[string]string{"error": "invalid form data"})
		return
	}

	file, _, err := r.FormFile("ics_file")
	if err != nil {
		h.redirect(w, r, "/", map[string]string{"error": "no file uploaded"})
		return
	}
	defer file.Close()

	n, err := h.gw.ImportICS(r.Context(), file)
	if n > 0 {
		sess.Events.ReplaceAll(h.gw.ListEvents(r.Context()))
	}
	switch {
	case err != nil && n > 0:
		errors.LogError(r, "import calendar", err)
		h.redirect(w, r, "/", map[string]string{"error": fmt.Sprintf("imported %d events before a failure", n)})
	case err != nil:
		errors.LogError(r, "import calendar", err)
		h.redirect(w, r, "/", map[string]string{"error": "import failed"})
	case n == 0:
		h.redirect(w, r, "/", map[string]string{"error": "no events found in file"})
	default:
		errors.LogInfo(r, fmt.Sprintf("imported %d events", n))
		h.redirect(w, r, "/", map[string]string{"status": fmt.Sprintf("Imported %d events", n)})
	}
}

type eventsPage struct {
	Events []store.Event `json:"events"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
	Total  int           `json:"total"`
}

// EventsJSON returns the session's events, newest first, one page at a time.
func (h *Handler) EventsJSON(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Events.ReplaceAll(h.gw.ListEvents(r.Context()))
	events := sess.Events.Snapshot().Events

	page, limit := h.parsePagination(r)
	start := (page - 1) * limit
	if start > len(events) {
		start = len(events)
	}
	end := start + limit
	if end > len(events) {
		end = len(events)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(eventsPage{
		Events: events[start:end],
		Page:   page,
		Limit:  limit,
		Total:  len(events),
	}); err != nil {
		errors.LogError(r, "encode events", err)
	}
}
