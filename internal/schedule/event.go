package schedule

import (
	"fmt"
	"slices"
)

// attendeeSet is a set of attendee identifiers.
type attendeeSet map[string]struct{}

func newAttendeeSet(ids []string) attendeeSet {
	set := make(attendeeSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s attendeeSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

// intersects reports whether any of ids is in the set.
func (s attendeeSet) intersects(ids []string) bool {
	for _, id := range ids {
		if s.has(id) {
			return true
		}
	}
	return false
}

// sorted returns the members in ascending order.
func (s attendeeSet) sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Event is an immutable calendar entry occupying its attendees during When.
type Event struct {
	title     string
	when      TimeRange
	attendees []string // sorted, unique
}

// NewEvent creates an event. Duplicate attendees are collapsed.
func NewEvent(title string, when TimeRange, attendees ...string) Event {
	return Event{
		title:     title,
		when:      when,
		attendees: newAttendeeSet(attendees).sorted(),
	}
}

// Title returns the event title.
func (e Event) Title() string { return e.title }

// When returns the time the event occupies.
func (e Event) When() TimeRange { return e.when }

// Attendees returns a copy of the attendee identifiers in ascending order.
func (e Event) Attendees() []string { return slices.Clone(e.attendees) }

// WithAttendees returns a copy of the event that carries only the given attendees.
func (e Event) WithAttendees(attendees []string) Event {
	return NewEvent(e.title, e.when, attendees...)
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %v", e.title, e.when, e.attendees)
}

// MeetingRequest describes the meeting to place: who must come, who may
// come, and for how many minutes.
type MeetingRequest struct {
	mandatory attendeeSet
	optional  attendeeSet
	duration  int
}

// NewMeetingRequest validates and builds a request. The duration is in
// minutes and must be positive.
func NewMeetingRequest(mandatory, optional []string, duration int) (MeetingRequest, error) {
	if duration <= 0 {
		return MeetingRequest{}, fmt.Errorf("%w: duration %d must be positive", ErrInvalidRequest, duration)
	}
	return MeetingRequest{
		mandatory: newAttendeeSet(mandatory),
		optional:  newAttendeeSet(optional),
		duration:  duration,
	}, nil
}

// Mandatory returns the required attendees in ascending order.
func (r MeetingRequest) Mandatory() []string { return r.mandatory.sorted() }

// Optional returns the optional attendees in ascending order.
func (r MeetingRequest) Optional() []string { return r.optional.sorted() }

// Duration returns the meeting length in minutes.
func (r MeetingRequest) Duration() int { return r.duration }
