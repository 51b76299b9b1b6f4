package schedule

import "errors"

var (
	// ErrInvalidRange is returned when a range is reversed or leaves the day.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrInvalidRequest is returned for a meeting request without a positive duration.
	ErrInvalidRequest = errors.New("invalid meeting request")
)
