package ui

import (
	"context"
	"html/template"
	"io"
	"net/http"
	"time"

	"gitea.jw6.us/james/calplanner/internal/config"
	"gitea.jw6.us/james/calplanner/internal/gateway"
	"gitea.jw6.us/james/calplanner/internal/state"
	"gitea.jw6.us/james/calplanner/internal/store"
)

// EventGateway is the persistence boundary the pages talk to.
type EventGateway interface {
	CreateEvent(ctx context.Context, in gateway.NewEvent) gateway.Result
	ListEvents(ctx context.Context) []store.Event
	UpdateEvent(ctx context.Context, id int64, patch store.EventPatch) gateway.Result
	DeleteEvent(ctx context.Context, id int64) gateway.Result
	ImportICS(ctx context.Context, r io.Reader) (int, error)
	ExportICS(ctx context.Context, w io.Writer) error
}

// PreferenceSaver writes the session's view and month back to the client.
type PreferenceSaver interface {
	Persist(w http.ResponseWriter, sess *state.Session) error
}

// Handler serves the server-rendered calendar pages.
type Handler struct {
	cfg       *config.Config
	gw        EventGateway
	prefs     PreferenceSaver
	templates map[string]*template.Template
	now       func() time.Time
}

func NewHandler(cfg *config.Config, gw EventGateway, prefs PreferenceSaver) *Handler {
	return &Handler{cfg: cfg, gw: gw, prefs: prefs, templates: templates, now: time.Now}
}

func (h *Handler) location() *time.Location {
	if h.cfg != nil && h.cfg.Location != nil {
		return h.cfg.Location
	}
	return time.UTC
}

func (h *Handler) today() time.Time {
	return h.now().In(h.location())
}
