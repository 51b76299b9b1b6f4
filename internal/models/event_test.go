package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAttendee(t *testing.T) {
	assert.Equal(t, "bob@example.com", NormalizeAttendee("mailto:Bob@Example.com"))
	assert.Equal(t, "bob@example.com", NormalizeAttendee("  MAILTO:bob@example.com "))
	assert.Equal(t, "bob@example.com", NormalizeAttendee("bob@example.com"))
	assert.Equal(t, "", NormalizeAttendee("mailto:"))
	assert.Equal(t, "", NormalizeAttendee("   "))
}

func TestEvent_Overlaps(t *testing.T) {
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)

	e := &Event{StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour)}
	assert.True(t, e.Overlaps(day, next))

	late := &Event{StartTime: next, EndTime: next.Add(time.Hour)}
	assert.False(t, late.Overlaps(day, next), "starts at the end of the window")

	spanning := &Event{StartTime: day.Add(-time.Hour), EndTime: next.Add(time.Hour)}
	assert.True(t, spanning.Overlaps(day, next))
}

func TestEvent_AddAttendee(t *testing.T) {
	e := &Event{Attendees: []string{"alice@example.com"}}
	e.AddAttendee("mailto:ALICE@example.com")
	e.AddAttendee("bob@example.com")
	e.AddAttendee("")

	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, e.Attendees)
}
