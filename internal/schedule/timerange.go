// Package schedule finds the windows of a single day in which a meeting fits,
// given the day's events and who must or may attend.
//
// Times are minutes from midnight on a [StartOfDay, EndOfDay] axis and every
// range is half-open. The package performs no I/O; callers project their
// calendar data onto this axis first.
package schedule

import "fmt"

const (
	// StartOfDay is the first minute of the day.
	StartOfDay = 0
	// EndOfDay is one past the last minute of the day.
	EndOfDay = 24 * 60
)

// WholeDay spans the entire day.
var WholeDay = TimeRange{start: StartOfDay, end: EndOfDay}

// TimeRange is an immutable half-open interval [start, end) of minutes.
type TimeRange struct {
	start int
	end   int
}

// NewTimeRange returns the range [start, end). It fails with ErrInvalidRange
// unless StartOfDay <= start <= end <= EndOfDay.
func NewTimeRange(start, end int) (TimeRange, error) {
	if start < StartOfDay || end > EndOfDay || start > end {
		return TimeRange{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, start, end)
	}
	return TimeRange{start: start, end: end}, nil
}

// FromStartDuration returns the range that begins at start and lasts
// duration minutes.
func FromStartDuration(start, duration int) (TimeRange, error) {
	return NewTimeRange(start, start+duration)
}

// span builds a range from endpoints that are already known to be valid.
func span(start, end int) TimeRange {
	return TimeRange{start: start, end: end}
}

// Start returns the first minute in the range.
func (r TimeRange) Start() int { return r.start }

// End returns the minute just past the range.
func (r TimeRange) End() int { return r.end }

// Duration returns the length of the range in minutes.
func (r TimeRange) Duration() int { return r.end - r.start }

// ContainsPoint reports whether minute t falls inside the range.
func (r TimeRange) ContainsPoint(t int) bool {
	return r.start <= t && t < r.end
}

// Overlaps reports whether the two ranges share at least one instant. An
// empty range overlaps another range when it sits inside it.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.ContainsPoint(other.start) || other.ContainsPoint(r.start)
}

// Contains reports whether other lies entirely within r.
func (r TimeRange) Contains(other TimeRange) bool {
	return r.start <= other.start && other.end <= r.end
}

// OverlapsBefore reports whether r starts at or before other and ends
// strictly inside it.
func (r TimeRange) OverlapsBefore(other TimeRange) bool {
	return r.start <= other.start && r.end > other.start && r.end < other.end
}

// StartsOnOrBeforeEndsOnOrAfter reports whether r covers other completely.
func (r TimeRange) StartsOnOrBeforeEndsOnOrAfter(other TimeRange) bool {
	return r.start <= other.start && r.end >= other.end
}

// StartsDuringEndsOnOrAfter reports whether r starts strictly inside other
// and ends at or after it.
func (r TimeRange) StartsDuringEndsOnOrAfter(other TimeRange) bool {
	return r.start > other.start && r.start < other.end && r.end >= other.end
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.start, r.end)
}
