package models

import (
	"slices"
	"strings"
	"time"
)

// Event represents a calendar event as read from a provider.
// This is an internal representation, independent of any specific calendar provider.
type Event struct {
	ID          string    // Identifier in the source calendar
	Title       string    // Summary or title of the event
	Description string    // Detailed description of the event
	StartTime   time.Time // Start time of the event
	EndTime     time.Time // End time of the event
	AllDay      bool      // Event is given as whole dates rather than times
	Free        bool      // Cancelled or marked as not blocking time
	Location    string    // Location of the event
	Organizer   string    // Organizer's email
	Attendees   []string  // Emails of attendees who have not declined
	Optional    []string  // Subset of Attendees invited as optional; planning still counts them as busy
	Source      string    // The source of the event (e.g., "google-primary")
	UID         string    // The iCalendar UID
}

// Overlaps reports whether the event occupies any time in [from, to).
func (e *Event) Overlaps(from, to time.Time) bool {
	return e.StartTime.Before(to) && from.Before(e.EndTime)
}

// NormalizeAttendee turns a calendar address such as "mailto:Bob@Example.com"
// into the form used to compare attendees.
func NormalizeAttendee(addr string) string {
	addr = strings.TrimSpace(addr)
	if len(addr) >= len("mailto:") && strings.EqualFold(addr[:len("mailto:")], "mailto:") {
		addr = addr[len("mailto:"):]
	}
	return strings.ToLower(strings.TrimSpace(addr))
}

// AddAttendee adds addr to the attendees unless it is blank or already present.
func (e *Event) AddAttendee(addr string) {
	addr = NormalizeAttendee(addr)
	if addr == "" || slices.Contains(e.Attendees, addr) {
		return
	}
	e.Attendees = append(e.Attendees, addr)
}
