package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"findslot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calendarText(lines ...string) string {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return strings.Join(all, "\r\n")
}

func TestDecode_TimedEvent(t *testing.T) {
	data := calendarText(
		"BEGIN:VEVENT",
		"UID:standup-1",
		"DTSTAMP:20261016T070000Z",
		"SUMMARY:Standup",
		"DTSTART:20261016T090000Z",
		"DTEND:20261016T091500Z",
		"ORGANIZER:mailto:Alice@Example.com",
		"ATTENDEE;ROLE=REQ-PARTICIPANT:mailto:bob@example.com",
		"ATTENDEE;ROLE=OPT-PARTICIPANT:mailto:carol@example.com",
		"ATTENDEE;PARTSTAT=DECLINED:mailto:dan@example.com",
		"END:VEVENT",
	)

	events, err := Decode(strings.NewReader(data), time.UTC, "test")
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "standup-1", e.UID)
	assert.Equal(t, "Standup", e.Title)
	assert.Equal(t, "test", e.Source)
	assert.Equal(t, time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), e.StartTime.UTC())
	assert.Equal(t, time.Date(2026, 10, 16, 9, 15, 0, 0, time.UTC), e.EndTime.UTC())
	assert.False(t, e.AllDay)
	assert.False(t, e.Free)
	assert.Equal(t, "alice@example.com", e.Organizer)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com", "carol@example.com"}, e.Attendees)
	assert.Equal(t, []string{"carol@example.com"}, e.Optional)
}

func TestDecode_AllDayAndFreeEvents(t *testing.T) {
	data := calendarText(
		"BEGIN:VEVENT",
		"UID:pto",
		"DTSTAMP:20261016T070000Z",
		"DTSTART;VALUE=DATE:20261016",
		"SUMMARY:PTO",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:hold",
		"DTSTAMP:20261016T070000Z",
		"DTSTART:20261016T120000Z",
		"DURATION:PT1H",
		"TRANSP:TRANSPARENT",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:gone",
		"DTSTAMP:20261016T070000Z",
		"DTSTART:20261016T140000Z",
		"DTEND:20261016T150000Z",
		"STATUS:CANCELLED",
		"END:VEVENT",
	)

	events, err := Decode(strings.NewReader(data), time.UTC, "test")
	require.NoError(t, err)
	require.Len(t, events, 3)

	pto := events[0]
	assert.True(t, pto.AllDay)
	assert.False(t, pto.Free)
	assert.Equal(t, 24*time.Hour, pto.EndTime.Sub(pto.StartTime))

	hold := events[1]
	assert.True(t, hold.Free)
	assert.Equal(t, time.Hour, hold.EndTime.Sub(hold.StartTime))

	assert.True(t, events[2].Free)
}

func TestDecode_SkipsEventsWithoutStart(t *testing.T) {
	data := calendarText(
		"BEGIN:VEVENT",
		"UID:nostart",
		"DTSTAMP:20261016T070000Z",
		"SUMMARY:Someday",
		"END:VEVENT",
	)

	events, err := Decode(strings.NewReader(data), time.UTC, "test")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDecode_RejectsReversedEvent(t *testing.T) {
	data := calendarText(
		"BEGIN:VEVENT",
		"UID:backwards",
		"DTSTAMP:20261016T070000Z",
		"DTSTART:20261016T100000Z",
		"DTEND:20261016T090000Z",
		"END:VEVENT",
	)

	_, err := Decode(strings.NewReader(data), time.UTC, "test")
	assert.ErrorContains(t, err, "ends before it starts")
}

func TestEncode_DecodesBack(t *testing.T) {
	start := time.Date(2026, 10, 16, 13, 0, 0, 0, time.UTC)
	booked := &models.Event{
		UID:       GenerateUID(),
		Title:     "Design review",
		StartTime: start,
		EndTime:   start.Add(45 * time.Minute),
		Attendees: []string{"alice@example.com", "bob@example.com"},
		Optional:  []string{"bob@example.com"},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, NewCalendar(booked)))
	assert.Contains(t, buf.String(), "ROLE=OPT-PARTICIPANT")

	events, err := Decode(&buf, time.UTC, "roundtrip")
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, booked.UID, got.UID)
	assert.Equal(t, booked.Title, got.Title)
	assert.True(t, booked.StartTime.Equal(got.StartTime))
	assert.True(t, booked.EndTime.Equal(got.EndTime))
	assert.Equal(t, booked.Attendees, got.Attendees)
	assert.Equal(t, booked.Optional, got.Optional)
}

func TestGenerateUID_Unique(t *testing.T) {
	assert.NotEqual(t, GenerateUID(), GenerateUID())
}
