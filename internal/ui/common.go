package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gitea.jw6.us/james/calplanner/internal/http/csrf"
	"gitea.jw6.us/james/calplanner/internal/http/errors"
	"gitea.jw6.us/james/calplanner/internal/state"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// parsePagination extracts page and limit from query parameters.
func (h *Handler) parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = defaultPageSize

	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxPageSize {
			limit = parsed
		}
	}
	return
}

// withFlash adds flash messages and the CSRF token to template data.
func (h *Handler) withFlash(r *http.Request, data map[string]any) map[string]any {
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		data["FlashMessage"] = status
	}
	if err := q.Get("error"); err != "" {
		data["FlashError"] = err
	}
	if csrfToken := csrf.TokenFromContext(r.Context()); csrfToken != "" {
		data["CSRFToken"] = csrfToken
	}
	return data
}

// redirect sends the browser to path with the non-empty params as a query.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path string, params map[string]string) {
	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	location := path
	if encoded := q.Encode(); encoded != "" {
		location += "?" + encoded
	}
	http.Redirect(w, r, location, http.StatusFound)
}

// render executes a template and writes it with status. Nothing from the
// template reaches w when execution fails.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	tmpl, ok := h.templates[name]
	if !ok {
		errors.InternalError(w, r, fmt.Errorf("template not found"), fmt.Sprintf("template %q not found", name))
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		errors.InternalError(w, r, err, fmt.Sprintf("template render error for %q", name))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// session returns the caller's stores or answers 500 when the session
// middleware did not run.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*state.Session, bool) {
	sess, ok := state.FromContext(r.Context())
	if !ok {
		errors.InternalError(w, r, fmt.Errorf("no session in context"), "session lookup")
		return nil, false
	}
	return sess, true
}

// persist stores the session's view and month in its cookie.
func (h *Handler) persist(w http.ResponseWriter, r *http.Request, sess *state.Session) {
	if h.prefs == nil {
		return
	}
	if err := h.prefs.Persist(w, sess); err != nil {
		errors.LogError(r, "persist preferences", err)
	}
}

func eventID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid event id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}
