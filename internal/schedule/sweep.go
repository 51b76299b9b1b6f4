package schedule

import (
	"cmp"
	"fmt"
	"slices"
)

// EventTimePoint is one boundary of an event on the sweep line.
type EventTimePoint struct {
	event   *Event
	isStart bool
}

// Event returns the event the point belongs to.
func (p EventTimePoint) Event() *Event { return p.event }

// IsStart reports whether the point opens its event.
func (p EventTimePoint) IsStart() bool { return p.isStart }

// Time returns the minute at which the point sits.
func (p EventTimePoint) Time() int {
	if p.isStart {
		return p.event.when.start
	}
	return p.event.when.end
}

func compareTimePoints(a, b EventTimePoint) int {
	return cmp.Compare(a.Time(), b.Time())
}

// timePoints returns both boundaries of every event ordered by time. Points
// at the same minute keep their insertion order, so an event's start always
// precedes its own end.
func timePoints(events []Event) []EventTimePoint {
	points := make([]EventTimePoint, 0, 2*len(events))
	for i := range events {
		points = append(points,
			EventTimePoint{event: &events[i], isStart: true},
			EventTimePoint{event: &events[i], isStart: false},
		)
	}
	slices.SortStableFunc(points, compareTimePoints)
	return points
}

// IntervalUnavailability is a stretch of time during which the same number
// of optional attendees is busy.
type IntervalUnavailability struct {
	Range       TimeRange
	Unavailable int
}

func (u IntervalUnavailability) String() string {
	return fmt.Sprintf("%s: %d", u.Range, u.Unavailable)
}

// busyTally counts the distinct attendees held by the open events.
type busyTally struct {
	open map[string]int
}

func (t *busyTally) apply(p EventTimePoint) {
	for _, id := range p.event.attendees {
		if p.isStart {
			t.open[id]++
			continue
		}
		if t.open[id]--; t.open[id] <= 0 {
			delete(t.open, id)
		}
	}
}

func (t *busyTally) count() int { return len(t.open) }

// stretch is a run of minutes with the same busy count, not yet checked
// against the meeting duration.
type stretch struct {
	start, end, unavailable int
}

// Sweep walks the boundaries of events in time order and returns every
// maximal stretch with a constant number of busy attendees that lasts at
// least duration minutes. Stretches before the first and after the last
// boundary are reported with zero unavailability when they lie inside bounds.
//
// Adjacent stretches with the same count are joined before the duration
// check, so back-to-back events of one person form a single stretch. The
// returned intervals are disjoint and ordered by start.
func Sweep(events []Event, bounds TimeRange, duration int) []IntervalUnavailability {
	points := timePoints(events)
	if len(points) == 0 {
		if bounds.Duration() >= duration {
			return []IntervalUnavailability{{Range: bounds}}
		}
		return nil
	}

	var (
		out     []IntervalUnavailability
		pending stretch
		open    bool
	)
	flush := func() {
		if open && pending.end-pending.start >= duration {
			out = append(out, IntervalUnavailability{Range: span(pending.start, pending.end), Unavailable: pending.unavailable})
		}
	}
	add := func(start, end, unavailable int) {
		if start == end {
			return
		}
		if open && pending.unavailable == unavailable && pending.end == start {
			pending.end = end
			return
		}
		flush()
		pending, open = stretch{start: start, end: end, unavailable: unavailable}, true
	}

	if first := points[0].Time(); first > bounds.start {
		add(bounds.start, first, 0)
	}

	tally := busyTally{open: make(map[string]int)}
	for i, p := range points {
		tally.apply(p)
		if i+1 < len(points) {
			add(p.Time(), points[i+1].Time(), tally.count())
		}
	}

	if last := points[len(points)-1].Time(); last < bounds.end {
		add(last, bounds.end, 0)
	}
	flush()
	return out
}
