package ics

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"findslot/internal/models"
)

// FileSource reads events from a local .ics file, such as a calendar export.
type FileSource struct {
	path  string
	owner string
	loc   *time.Location
}

// NewFileSource parses a source spec of the form "[owner=]path". When an
// owner is given it is treated as an attendee of every event in the file.
func NewFileSource(spec string, loc *time.Location) (*FileSource, error) {
	owner, path, found := strings.Cut(spec, "=")
	if !found || strings.ContainsAny(owner, `/\`) {
		// A separator before "=" means the whole spec is a path.
		owner, path = "", spec
	}
	if path == "" {
		return nil, fmt.Errorf("invalid ics source %q: missing path", spec)
	}
	return &FileSource{path: path, owner: models.NormalizeAttendee(owner), loc: loc}, nil
}

// Name identifies the source in logs and on events.
func (s *FileSource) Name() string {
	return "ics:" + s.path
}

// EventsBetween returns the events in the file that overlap [from, to).
func (s *FileSource) EventsBetween(_ context.Context, from, to time.Time) ([]*models.Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	all, err := Decode(f, s.loc, s.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var events []*models.Event
	for _, e := range all {
		if !e.Overlaps(from, to) {
			continue
		}
		e.AddAttendee(s.owner)
		events = append(events, e)
	}
	return events, nil
}
