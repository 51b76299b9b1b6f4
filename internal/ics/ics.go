// Package ics converts between iCalendar data and the internal event model.
package ics

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"findslot/internal/models"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const productID = "-//findslot//EN"

// Decode reads every calendar in r and returns their events. Times without
// a zone are interpreted in loc.
func Decode(r io.Reader, loc *time.Location, source string) ([]*models.Event, error) {
	dec := ical.NewDecoder(r)
	var events []*models.Event
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}
		evs, err := FromCalendar(cal, loc, source)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}
	return events, nil
}

// FromCalendar converts the VEVENTs of cal. Events without a start are skipped.
func FromCalendar(cal *ical.Calendar, loc *time.Location, source string) ([]*models.Event, error) {
	var events []*models.Event
	for _, ve := range cal.Events() {
		event, err := fromVEvent(&ve, loc, source)
		if err != nil {
			return nil, err
		}
		if event != nil {
			events = append(events, event)
		}
	}
	return events, nil
}

func fromVEvent(ve *ical.Event, loc *time.Location, source string) (*models.Event, error) {
	startProp := ve.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return nil, nil
	}

	uid := text(ve.Props, ical.PropUID)
	start, err := ve.DateTimeStart(loc)
	if err != nil {
		return nil, fmt.Errorf("event %q has an invalid start: %w", uid, err)
	}
	end, err := ve.DateTimeEnd(loc)
	if err != nil {
		return nil, fmt.Errorf("event %q has an invalid end: %w", uid, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("event %q ends before it starts", uid)
	}

	event := &models.Event{
		ID:          uid,
		UID:         uid,
		Title:       text(ve.Props, ical.PropSummary),
		Description: text(ve.Props, ical.PropDescription),
		Location:    text(ve.Props, ical.PropLocation),
		StartTime:   start,
		EndTime:     end,
		AllDay:      startProp.ValueType() == ical.ValueDate,
		Free: strings.EqualFold(text(ve.Props, ical.PropStatus), "CANCELLED") ||
			strings.EqualFold(text(ve.Props, ical.PropTransparency), "TRANSPARENT"),
		Source: source,
	}

	if p := ve.Props.Get(ical.PropOrganizer); p != nil {
		event.Organizer = models.NormalizeAttendee(p.Value)
		event.AddAttendee(p.Value)
	}
	for _, p := range ve.Props.Values(ical.PropAttendee) {
		if strings.EqualFold(p.Params.Get(ical.ParamParticipationStatus), "DECLINED") {
			continue
		}
		addr := models.NormalizeAttendee(p.Value)
		if addr == "" {
			continue
		}
		event.AddAttendee(addr)
		if strings.EqualFold(p.Params.Get(ical.ParamRole), "OPT-PARTICIPANT") && !slices.Contains(event.Optional, addr) {
			event.Optional = append(event.Optional, addr)
		}
	}
	return event, nil
}

// text returns the text value of a property, or "" when it is absent.
func text(props ical.Props, name string) string {
	s, err := props.Text(name)
	if err != nil {
		return ""
	}
	return s
}

// NewCalendar wraps event in a calendar ready to be encoded.
func NewCalendar(event *models.Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, toVEvent(event))
	return cal
}

// Encode writes cal in iCalendar format.
func Encode(w io.Writer, cal *ical.Calendar) error {
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return nil
}

// toVEvent converts an internal Event model to an ical.Component (VEvent).
func toVEvent(event *models.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.UID)
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	if event.AllDay {
		ve.Props.SetDate(ical.PropDateTimeStart, event.StartTime)
		ve.Props.SetDate(ical.PropDateTimeEnd, event.EndTime)
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime)
		ve.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime)
	}
	if event.Free {
		ve.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	}

	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	if event.Organizer != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.Value = "mailto:" + event.Organizer
		ve.Props.Add(p)
	}
	for _, attendee := range event.Attendees {
		if attendee == event.Organizer {
			continue
		}
		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + attendee
		role := "REQ-PARTICIPANT"
		if slices.Contains(event.Optional, attendee) {
			role = "OPT-PARTICIPANT"
		}
		p.Params.Set(ical.ParamRole, role)
		ve.Props.Add(p)
	}
	return ve
}

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String()
}
