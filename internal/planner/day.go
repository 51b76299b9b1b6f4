package planner

import (
	"time"

	"findslot/internal/models"
	"findslot/internal/schedule"
)

// day is the span [start, end) between two local midnights.
type day struct {
	start time.Time
	end   time.Time
}

func newDay(t time.Time, loc *time.Location) day {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return day{start: start, end: start.AddDate(0, 0, 1)}
}

// length returns the number of minutes the day lasts, which differs from
// 1440 on days with a daylight saving change.
func (d day) length() int {
	return int(d.end.Sub(d.start) / time.Minute)
}

// at returns the instant m minutes after the day starts, never later than
// the day's end.
func (d day) at(m int) time.Time {
	if t := d.start.Add(time.Duration(m) * time.Minute); t.Before(d.end) {
		return t
	}
	return d.end
}

// minute places t on the day's minute axis, rounding up when ceil is set
// and clamping to the day. On a day longer than 1440 minutes the extra time
// at the end cannot be represented and is clamped away.
func (d day) minute(t time.Time, ceil bool) int {
	offset := t.Sub(d.start)
	m := int(offset / time.Minute)
	if ceil && offset%time.Minute > 0 {
		m++
	}
	return min(max(m, schedule.StartOfDay), d.length(), schedule.EndOfDay)
}

// project converts the busy events touching the day into schedule events,
// clipping them to the day. Free events, events that take no time and events
// outside the day are dropped.
func (d day) project(events []*models.Event) []schedule.Event {
	out := make([]schedule.Event, 0, len(events))
	for _, e := range events {
		if e.Free || !e.EndTime.After(e.StartTime) || !e.Overlaps(d.start, d.end) {
			continue
		}
		when, err := schedule.NewTimeRange(d.minute(e.StartTime, false), d.minute(e.EndTime, true))
		if err != nil {
			continue
		}
		out = append(out, schedule.NewEvent(e.Title, when, normalizeAll(e.Attendees)...))
	}
	return out
}
