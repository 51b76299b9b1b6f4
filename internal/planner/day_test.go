package planner

import (
	"testing"
	"time"
	_ "time/tzdata"

	"findslot/internal/models"
	"findslot/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDay(t *testing.T) {
	loc := time.FixedZone("PDT", -7*60*60)
	d := newDay(time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC), loc)

	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, loc), d.start)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, loc), d.end)
	assert.Equal(t, time.Date(2026, 10, 16, 9, 30, 0, 0, loc), d.at(570))
}

func TestDay_Minute(t *testing.T) {
	d := newDay(testDay, time.UTC)

	assert.Equal(t, 90, d.minute(at(1, 30), false))
	assert.Equal(t, 90, d.minute(at(1, 30).Add(20*time.Second), false))
	assert.Equal(t, 91, d.minute(at(1, 30).Add(20*time.Second), true))
	assert.Equal(t, 90, d.minute(at(1, 30), true))
	assert.Equal(t, schedule.StartOfDay, d.minute(testDay.Add(-time.Hour), false))
	assert.Equal(t, schedule.EndOfDay, d.minute(testDay.Add(25*time.Hour), true))
}

func TestDay_Project(t *testing.T) {
	d := newDay(testDay, time.UTC)

	free := busy("free", at(8, 0), at(9, 0), alice)
	free.Free = true
	events := []*models.Event{
		busy("overnight", testDay.Add(-2*time.Hour), at(1, 0), "MAILTO:Alice@Example.com"),
		busy("late", at(23, 0), testDay.Add(26*time.Hour), bob),
		busy("yesterday", testDay.Add(-3*time.Hour), testDay, alice),
		free,
		{Title: "all day", StartTime: testDay, EndTime: testDay.AddDate(0, 0, 1), AllDay: true, Attendees: []string{bob}},
	}

	got := d.project(events)
	require.Len(t, got, 3)

	assert.Equal(t, "overnight", got[0].Title())
	assert.Equal(t, 0, got[0].When().Start())
	assert.Equal(t, 60, got[0].When().End())
	assert.Equal(t, []string{alice}, got[0].Attendees())

	assert.Equal(t, 1380, got[1].When().Start())
	assert.Equal(t, schedule.EndOfDay, got[1].When().End())

	assert.Equal(t, schedule.WholeDay, got[2].When())
}

func TestDay_DaylightSavingChange(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	short := newDay(time.Date(2026, 3, 29, 12, 0, 0, 0, berlin), berlin)
	assert.Equal(t, 23*60, short.length())
	assert.Equal(t, short.end, short.at(schedule.EndOfDay))
	assert.Equal(t, 23*60, short.minute(short.end, true))

	long := newDay(time.Date(2026, 10, 25, 12, 0, 0, 0, berlin), berlin)
	assert.Equal(t, 25*60, long.length())
	assert.Equal(t, schedule.EndOfDay, long.minute(long.end, true))
}

func TestDay_ProjectDropsZeroLengthEvents(t *testing.T) {
	d := newDay(testDay, time.UTC)

	got := d.project([]*models.Event{
		busy("deadline", at(10, 0), at(10, 0), alice),
		busy("reversed", at(12, 0), at(11, 0), alice),
		busy("sync", at(13, 0), at(14, 0), alice),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "sync", got[0].Title())
}
