package schedule

import (
	"cmp"
	"log/slog"
	"slices"
)

// Finder answers meeting queries. It holds no per-query state and is safe
// for concurrent use.
type Finder struct {
	logger *slog.Logger
}

// NewFinder creates a Finder that reports query diagnostics at debug level.
// A nil logger discards them.
func NewFinder(logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Finder{logger: logger}
}

// Query returns the windows in which the requested meeting fits, using a
// Finder that logs nothing.
func Query(events []Event, request MeetingRequest) []TimeRange {
	return NewFinder(nil).Query(events, request)
}

// Query returns the windows of the day in which every mandatory attendee is
// free for at least the requested duration and as few optional attendees as
// possible are busy. Windows are ordered by start.
func (f *Finder) Query(events []Event, request MeetingRequest) []TimeRange {
	busy := mergeBusy(events, request)
	gaps := freeGaps(busy, request.duration)
	f.logger.Debug("Computed mandatory availability", "events", len(events), "busy", len(busy), "gaps", len(gaps))

	optionalOnly := optionalOnlyEvents(events, request)
	if len(optionalOnly) == 0 {
		f.logger.Debug("No optional attendee conflicts, returning mandatory gaps")
		return gaps
	}

	units := Sweep(optionalOnly, WholeDay, request.duration)
	var sel selection
	for _, gap := range gaps {
		sel.intersect(gap, units, request.duration)
	}
	f.logger.Debug("Optimised optional attendance", "optionalEvents", len(optionalOnly), "candidates", len(sel.windows), "best", sel.best)

	switch {
	case len(sel.windows) == 0:
		if len(request.mandatory) == 0 {
			f.logger.Debug("No candidate window and no mandatory attendees")
			return []TimeRange{}
		}
		f.logger.Debug("No candidate window, falling back to mandatory gaps")
		return gaps
	case len(request.mandatory) == 0 && len(request.optional) == 2 && sel.best >= 1:
		f.logger.Debug("Two optional attendees cannot both attend, proposing nothing")
		return []TimeRange{}
	case sel.best == len(request.optional):
		f.logger.Debug("Every optional attendee is busy in every window, returning mandatory gaps")
		return gaps
	}
	return sel.windows
}

// mergeBusy folds the events that involve a mandatory attendee into sorted,
// disjoint busy ranges. Empty events hold no time and are skipped.
func mergeBusy(events []Event, request MeetingRequest) []TimeRange {
	var ranges []TimeRange
	for _, e := range events {
		if e.when.Duration() > 0 && request.mandatory.intersects(e.attendees) {
			ranges = append(ranges, e.when)
		}
	}
	return mergeRanges(ranges)
}

// mergeRanges sorts ranges by start and coalesces overlapping ones into a
// new slice. The input is not modified.
func mergeRanges(ranges []TimeRange) []TimeRange {
	sorted := slices.Clone(ranges)
	slices.SortStableFunc(sorted, func(a, b TimeRange) int {
		return cmp.Compare(a.start, b.start)
	})

	merged := make([]TimeRange, 0, len(sorted))
	for _, r := range sorted {
		if n := len(merged); n > 0 && merged[n-1].Overlaps(r) {
			last := merged[n-1]
			merged[n-1] = span(last.start, max(last.end, r.end))
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// freeGaps returns the complement of busy within the day, keeping only the
// gaps of at least duration minutes.
func freeGaps(busy []TimeRange, duration int) []TimeRange {
	gaps := []TimeRange{}
	start := StartOfDay
	for _, b := range busy {
		if b.start-start >= duration {
			gaps = append(gaps, span(start, b.start))
		}
		start = max(start, b.end)
	}
	if EndOfDay-start >= duration {
		gaps = append(gaps, span(start, EndOfDay))
	}
	return gaps
}

// optionalOnlyEvents returns copies of the events that involve optional
// attendees but no mandatory one, each reduced to its optional attendees.
func optionalOnlyEvents(events []Event, request MeetingRequest) []Event {
	var out []Event
	for _, e := range events {
		if request.mandatory.intersects(e.attendees) || !request.optional.intersects(e.attendees) {
			continue
		}
		var keep []string
		for _, id := range e.attendees {
			if request.optional.has(id) {
				keep = append(keep, id)
			}
		}
		out = append(out, e.WithAttendees(keep))
	}
	return out
}

// overlapCase classifies how an unavailability interval meets a gap.
type overlapCase int

const (
	disjoint overlapCase = iota
	covers
	overlapsBefore
	startsDuring
	contained
)

func classify(u, gap TimeRange) overlapCase {
	switch {
	case !u.Overlaps(gap):
		return disjoint
	case u.StartsOnOrBeforeEndsOnOrAfter(gap):
		return covers
	case u.OverlapsBefore(gap):
		return overlapsBefore
	case u.StartsDuringEndsOnOrAfter(gap):
		return startsDuring
	default:
		return contained
	}
}

// selection accumulates the windows that share the lowest unavailability
// seen. cursor indexes the next unavailability interval still to be matched
// against a gap and carries over from one gap to the next.
type selection struct {
	windows []TimeRange
	best    int
	cursor  int
}

func (s *selection) offer(r TimeRange, unavailable int) {
	switch {
	case len(s.windows) == 0 || unavailable < s.best:
		s.windows = []TimeRange{r}
		s.best = unavailable
	case unavailable == s.best:
		s.windows = append(s.windows, r)
	}
}

// intersect clips the unavailability intervals to gap and offers every
// clipped window that still fits the meeting. Gaps must be passed in order
// and units must be disjoint and ordered by start. An interval reaching past
// the gap stays under the cursor for the next gap.
func (s *selection) intersect(gap TimeRange, units []IntervalUnavailability, duration int) {
	for s.cursor < len(units) {
		u := units[s.cursor]
		switch classify(u.Range, gap) {
		case disjoint:
			if u.Range.start >= gap.end {
				return
			}
			s.cursor++
		case covers:
			if gap.Duration() >= duration {
				s.offer(gap, u.Unavailable)
			}
			if u.Range.end == gap.end {
				s.cursor++
			}
			return
		case overlapsBefore:
			if u.Range.end-gap.start >= duration {
				s.offer(span(gap.start, u.Range.end), u.Unavailable)
			}
			s.cursor++
		case contained:
			if u.Range.Duration() >= duration {
				s.offer(u.Range, u.Unavailable)
			}
			s.cursor++
		case startsDuring:
			if gap.end-u.Range.start >= duration {
				s.offer(span(u.Range.start, gap.end), u.Unavailable)
			}
			if u.Range.end == gap.end {
				s.cursor++
			}
			return
		}
	}
}
