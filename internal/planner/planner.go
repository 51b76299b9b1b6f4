package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"findslot/internal/ics"
	"findslot/internal/models"
	"findslot/internal/schedule"
)

// Source provides the calendar events that overlap a time span.
type Source interface {
	Name() string
	EventsBetween(ctx context.Context, from, to time.Time) ([]*models.Event, error)
}

// Booker stores a newly scheduled meeting.
type Booker interface {
	CreateEvent(ctx context.Context, event *models.Event) error
}

// ErrNoBooker is returned when booking is requested without a calendar to write to.
var ErrNoBooker = errors.New("no calendar configured for booking")

// Request describes the meeting to plan.
type Request struct {
	Day       time.Time // any instant on the wanted day
	Duration  time.Duration
	Mandatory []string
	Optional  []string
	Title     string
}

// Window is a proposed meeting time.
type Window struct {
	Start time.Time
	End   time.Time
	Range schedule.TimeRange
}

// Minutes returns the length of the window in wall-clock minutes.
func (w Window) Minutes() int {
	return int(w.End.Sub(w.Start) / time.Minute)
}

// Plan is the outcome of planning one request.
type Plan struct {
	Request Request
	Windows []Window
	Events  int // events considered after clipping to the day
}

// Planner gathers events from its sources and finds meeting windows.
type Planner struct {
	logger  *slog.Logger
	sources []Source
	finder  *schedule.Finder
	booker  Booker
	dryRun  bool
	loc     *time.Location
}

// NewPlanner creates a new Planner. booker may be nil when meetings are never booked.
func NewPlanner(logger *slog.Logger, sources []Source, booker Booker, dryRun bool, tz *time.Location) *Planner {
	return &Planner{
		logger:  logger,
		sources: sources,
		finder:  schedule.NewFinder(logger),
		booker:  booker,
		dryRun:  dryRun,
		loc:     tz,
	}
}

// Plan finds the windows on req.Day in which the meeting fits.
func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	if req.Duration%time.Minute != 0 {
		return nil, fmt.Errorf("%w: duration %s is not a whole number of minutes", schedule.ErrInvalidRequest, req.Duration)
	}
	mreq, err := schedule.NewMeetingRequest(normalizeAll(req.Mandatory), normalizeAll(req.Optional), int(req.Duration/time.Minute))
	if err != nil {
		return nil, err
	}

	d := newDay(req.Day, p.loc)
	p.logger.Info("Planning meeting.", "day", d.start.Format(time.DateOnly), "duration", req.Duration,
		"mandatory", mreq.Mandatory(), "optional", mreq.Optional())

	raw, err := p.fetchAllEvents(ctx, d)
	if err != nil {
		return nil, err
	}

	events := d.project(raw)
	p.logger.Info("Fetched all events.", "count", len(raw), "onDay", len(events))

	ranges := p.finder.Query(events, mreq)
	windows := make([]Window, 0, len(ranges))
	for _, r := range ranges {
		w := Window{Start: d.at(r.Start()), End: d.at(r.End()), Range: r}
		if w.End.Sub(w.Start) < req.Duration {
			// Falls into the hour a short day skips.
			continue
		}
		windows = append(windows, w)
	}

	p.logger.Info("Planning finished.", "windows", len(windows))
	return &Plan{Request: req, Windows: windows, Events: len(events)}, nil
}

// fetchAllEvents retrieves the day's events from every source. Any failing
// source fails the plan, since its busy times would otherwise be missed.
func (p *Planner) fetchAllEvents(ctx context.Context, d day) ([]*models.Event, error) {
	var all []*models.Event
	for _, s := range p.sources {
		events, err := s.EventsBetween(ctx, d.start, d.end)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch events from %s: %w", s.Name(), err)
		}
		p.logger.Debug("Fetched events from source.", "source", s.Name(), "count", len(events))
		all = append(all, events...)
	}
	return all, nil
}

// Book creates the meeting for window number n (counting from 1) of plan.
func (p *Planner) Book(ctx context.Context, plan *Plan, n int) (*models.Event, error) {
	if n < 1 || n > len(plan.Windows) {
		return nil, fmt.Errorf("window %d does not exist, plan has %d", n, len(plan.Windows))
	}
	w := plan.Windows[n-1]

	title := plan.Request.Title
	if title == "" {
		title = "Meeting"
	}
	event := &models.Event{
		UID:       ics.GenerateUID(),
		Title:     title,
		StartTime: w.Start,
		EndTime:   w.Start.Add(plan.Request.Duration),
		Source:    "findslot",
	}
	event.ID = event.UID
	for _, a := range normalizeAll(plan.Request.Mandatory) {
		event.AddAttendee(a)
	}
	for _, a := range normalizeAll(plan.Request.Optional) {
		if slices.Contains(event.Attendees, a) {
			continue
		}
		event.AddAttendee(a)
		event.Optional = append(event.Optional, a)
	}

	if p.dryRun {
		p.logger.Info("[DRY RUN] Would book meeting", "title", event.Title, "startTime", event.StartTime, "endTime", event.EndTime)
		return event, nil
	}
	if p.booker == nil {
		return nil, ErrNoBooker
	}

	if err := p.booker.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to book meeting: %w", err)
	}
	p.logger.Info("Booked meeting.", "title", event.Title, "startTime", event.StartTime, "uid", event.UID)
	return event, nil
}

func normalizeAll(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if n := models.NormalizeAttendee(a); n != "" {
			out = append(out, n)
		}
	}
	return out
}
