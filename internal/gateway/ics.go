package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"gitea.jw6.us/james/calplanner/internal/metrics"
	"gitea.jw6.us/james/calplanner/internal/store"
)

const (
	productID      = "-//calplanner//calplanner//EN"
	floatingLayout = "20060102T150405"
	icsDateLayout  = "20060102"
)

// ImportICS creates one event per VEVENT in r and returns how many were
// stored. Components missing a SUMMARY, a DESCRIPTION or a parsable DTSTART
// are skipped, matching the fields CreateEvent requires. Import stops at the
// first storage failure; events created before it remain.
func (g *Gateway) ImportICS(ctx context.Context, r io.Reader) (int, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		metrics.ObserveGateway("import", "invalid")
		return 0, fmt.Errorf("parse calendar: %w", err)
	}

	created := 0
	defer func() {
		if created > 0 {
			g.invalidate()
		}
	}()

	for _, ve := range cal.Events() {
		ev, ok := g.eventFromVEvent(ve)
		if !ok {
			log.Printf("[WARN] skipping VEVENT without summary, description or start")
			continue
		}
		if _, err := g.events.Create(context.WithoutCancel(ctx), ev); err != nil {
			logError(ctx, "error importing event", err)
			metrics.ObserveGateway("import", "error")
			return created, fmt.Errorf("import event %q: %w", ev.Title, err)
		}
		created++
	}

	metrics.ObserveGateway("import", "ok")
	return created, nil
}

func (g *Gateway) eventFromVEvent(ve *ical.VEvent) (store.Event, bool) {
	var ev store.Event

	p := ve.GetProperty(ical.ComponentPropertySummary)
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return ev, false
	}
	ev.Title = strings.TrimSpace(p.Value)

	p = ve.GetProperty(ical.ComponentPropertyDescription)
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return ev, false
	}
	ev.Description = strings.TrimSpace(p.Value)

	start, ok := g.startOf(ve)
	if !ok {
		return ev, false
	}
	ev.Date = start

	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		if loc := strings.TrimSpace(p.Value); loc != "" {
			ev.Location = &loc
		}
	}
	return ev, true
}

// startOf reads DTSTART. UTC and TZID values are absolute instants. Floating
// values and bare dates have no zone of their own and are read as wall-clock
// time in the gateway's location.
func (g *Gateway) startOf(ve *ical.VEvent) (time.Time, bool) {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return time.Time{}, false
	}
	value := strings.TrimSpace(p.Value)

	if _, zoned := p.ICalParameters[string(ical.ParameterTzid)]; zoned || strings.HasSuffix(value, "Z") {
		start, err := ve.GetStartAt()
		if err != nil {
			return time.Time{}, false
		}
		return start.In(g.loc), true
	}

	for _, layout := range []string{floatingLayout, icsDateLayout} {
		if start, err := time.ParseInLocation(layout, value, g.loc); err == nil {
			return start, true
		}
	}
	return time.Time{}, false
}

// ExportICS writes every event as a VCALENDAR to w.
func (g *Gateway) ExportICS(ctx context.Context, w io.Writer) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, ev := range g.ListEvents(ctx) {
		ve := cal.AddEvent(eventUID(ev))
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != nil {
			ve.SetLocation(*ev.Location)
		}
		ve.SetStartAt(ev.Date.UTC())
		ve.SetEndAt(ev.Date.Add(time.Hour).UTC())
		stamp := ev.UpdatedAt
		if stamp.IsZero() {
			stamp = ev.Date
		}
		ve.SetDtStampTime(stamp.UTC())
		if !ev.UpdatedAt.IsZero() {
			ve.SetModifiedAt(ev.UpdatedAt.UTC())
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}

func eventUID(ev store.Event) string {
	return "event-" + strconv.FormatInt(ev.ID, 10) + "@calplanner"
}
