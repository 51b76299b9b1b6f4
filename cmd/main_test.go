package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"findslot/internal/planner"
	"findslot/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCalendar(t *testing.T, name string, vevents ...string) string {
	t.Helper()
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//test//EN"}
	lines = append(lines, vevents...)
	lines = append(lines, "END:VCALENDAR", "")
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\r\n")), 0644))
	return path
}

func vevent(uid, start, end string) []string {
	return []string{
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:20261016T070000Z",
		"DTSTART:" + start,
		"DTEND:" + end,
		"END:VEVENT",
	}
}

func runApp(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run(append([]string{"findslot"}, args...)))
	return out.String()
}

func TestFind_WithICSFiles(t *testing.T) {
	alice := writeCalendar(t, "alice.ics", vevent("a1", "20261016T090000Z", "20261016T100000Z")...)
	bob := writeCalendar(t, "bob.ics", vevent("b1", "20261016T120000Z", "20261016T130000Z")...)

	out := runApp(t, "find",
		"--date", "2026-10-16", "--timezone", "UTC", "--duration", "60",
		"-a", "alice@example.com", "-o", "bob@example.com",
		"--ics", "alice@example.com="+alice, "--ics", "bob@example.com="+bob,
	)

	assert.Equal(t, "1. 00:00-09:00 (540 min)\n2. 10:00-12:00 (120 min)\n3. 13:00-24:00 (660 min)\n", out)
}

func TestFind_JSON(t *testing.T) {
	alice := writeCalendar(t, "alice.ics", vevent("a1", "20261016T000000Z", "20261016T230000Z")...)

	out := runApp(t, "find", "--date", "2026-10-16", "--timezone", "UTC", "--json",
		"-a", "alice@example.com", "--ics", "alice@example.com="+alice)

	var windows []windowJSON
	require.NoError(t, json.Unmarshal([]byte(out), &windows))
	require.Len(t, windows, 1)
	assert.Equal(t, 60, windows[0].Minutes)
	assert.True(t, windows[0].Start.Equal(time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC)))
}

func TestFind_NoWindow(t *testing.T) {
	alice := writeCalendar(t, "alice.ics", vevent("a1", "20261016T000000Z", "20261017T000000Z")...)

	out := runApp(t, "find", "--date", "2026-10-16", "--timezone", "UTC",
		"-a", "alice@example.com", "--ics", "alice@example.com="+alice)
	assert.Equal(t, "No meeting window found.\n", out)
}

func TestFind_DryRunBookingNeedsNoCalendar(t *testing.T) {
	t.Setenv("ICLOUD_USERNAME", "")
	t.Setenv("ICLOUD_APP_SPECIFIC_PASSWORD", "")
	alice := writeCalendar(t, "alice.ics", vevent("a1", "20261016T000000Z", "20261016T090000Z")...)

	out := runApp(t, "find", "--date", "2026-10-16", "--timezone", "UTC",
		"-a", "alice@example.com", "--ics", "alice@example.com="+alice,
		"--book", "1", "--dry-run", "--title", "Planning")

	assert.Equal(t, "1. 09:00-24:00 (900 min)\nWould book \"Planning\" at 2026-10-16 09:00:00.\n", out)
}

func TestFind_InvalidInput(t *testing.T) {
	run := func(args ...string) error {
		app := newApp()
		app.Writer = &bytes.Buffer{}
		return app.Run(append([]string{"findslot", "find"}, args...))
	}

	assert.ErrorContains(t, run("--date", "16/10/2026"), "invalid date")
	assert.ErrorContains(t, run("--timezone", "Mars/Olympus"), "invalid timezone")
	assert.ErrorIs(t, run("--timezone", "UTC", "--duration", "0"), schedule.ErrInvalidRequest)
}

func TestPrintPlan_Text(t *testing.T) {
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	r, err := schedule.NewTimeRange(570, 600)
	require.NoError(t, err)

	var buf bytes.Buffer
	plan := &planner.Plan{Windows: []planner.Window{{Start: day.Add(570 * time.Minute), End: day.Add(600 * time.Minute), Range: r}}}
	require.NoError(t, printPlan(&buf, plan, false))
	assert.Equal(t, "1. 09:30-10:00 (30 min)\n", buf.String())
}
