package icloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"findslot/internal/ics"
	"findslot/internal/models"

	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

const (
	iCloudCalDAVEndpoint = "https://caldav.icloud.com/"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "findslot/1.0")
	return t.Transport.RoundTrip(req)
}

// CalDAVClient reads events from, and books meetings into, one iCloud calendar.
type CalDAVClient struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	calendarPath string
	owner        string
}

// NewClient creates and initializes a new CalDAVClient for iCloud. The owner
// is the attendee whose time the calendar describes; it defaults to username.
func NewClient(ctx context.Context, logger *slog.Logger, username, password, calendarName, owner string) (*CalDAVClient, error) {
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, iCloudCalDAVEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	webdavClient, err := webdav.NewClient(httpClient, iCloudCalDAVEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	if owner == "" {
		owner = username
	}
	c := &CalDAVClient{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		owner:        models.NormalizeAttendee(owner),
	}

	logger.Info("Finding iCloud calendar", "calendarName", calendarName)
	calendarPath, err := c.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarPath = calendarPath
	logger.Info("Successfully found iCloud calendar", "path", calendarPath)

	return c, nil
}

// Name identifies the calendar in logs.
func (c *CalDAVClient) Name() string {
	return "icloud:" + c.calendarPath
}

// EventsBetween runs a calendar query for the events overlapping [from, to).
// The calendar owner is added as an attendee of every event.
func (c *CalDAVClient) EventsBetween(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	c.logger.Debug("Querying iCloud calendar", "path", c.calendarPath, "from", from, "to", to)

	objects, err := c.caldavClient.QueryCalendar(ctx, c.calendarPath, eventQuery(from, to))
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	var events []*models.Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		evs, err := ics.FromCalendar(obj.Data, from.Location(), c.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", obj.Path, err)
		}
		for _, e := range evs {
			if !e.Overlaps(from, to) {
				continue
			}
			e.AddAttendee(c.owner)
			events = append(events, e)
		}
	}

	c.logger.Info("Fetched events from iCloud", "count", len(events))
	return events, nil
}

// eventQuery selects every VEVENT overlapping [from, to) with all its properties.
func eventQuery(from, to time.Time) *caldav.CalendarQuery {
	return &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{{
				Name:     "VEVENT",
				AllProps: true,
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: from.UTC(),
				End:   to.UTC(),
			}},
		},
	}
}

// CreateEvent writes event into the iCloud calendar.
func (c *CalDAVClient) CreateEvent(ctx context.Context, event *models.Event) error {
	c.logger.Debug("Creating event in iCloud", "eventTitle", event.Title, "uid", event.UID)

	eventPath := path.Join(c.calendarPath, fmt.Sprintf("%s.ics", event.UID))

	writer, err := c.webdavClient.Create(ctx, eventPath)
	if err != nil {
		return fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}

	if err := ics.Encode(writer, ics.NewCalendar(event)); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to upload event: %w", err)
	}

	c.logger.Info("Successfully created event in iCloud", "eventTitle", event.Title)
	return nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *CalDAVClient) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
