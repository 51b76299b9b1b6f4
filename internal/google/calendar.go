package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"findslot/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	credentialsFile = "credentials.json"
	dateLayout      = "2006-01-02"
)

// CalendarClient reads events from the calendars of one Google account.
type CalendarClient struct {
	service     *calendar.Service
	logger      *slog.Logger
	account     string
	calendarIDs []string
}

// NewClient creates a new Google Calendar client.
// It handles loading credentials and setting up an authenticated HTTP client.
// The accountName selects the token file written by the auth flow
// (token-<accountName>.json).
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName string, calendarIDs []string) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	token, err := tokenFromFile(TokenFile(accountName))
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	c := &CalendarClient{
		service:     service,
		logger:      logger,
		account:     accountName,
		calendarIDs: calendarIDs,
	}
	if len(c.calendarIDs) == 0 {
		if c.calendarIDs, err = c.discoverCalendars(ctx); err != nil {
			return nil, err
		}
		logger.Info("Discovered Google calendars", "account", accountName, "count", len(c.calendarIDs))
	}
	return c, nil
}

// discoverCalendars finds all calendars associated with the authenticated account.
func (c *CalendarClient) discoverCalendars(ctx context.Context) ([]string, error) {
	list, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	var calendarIDs []string
	for _, item := range list.Items {
		calendarIDs = append(calendarIDs, item.Id)
	}
	return calendarIDs, nil
}

// Name identifies the account in logs.
func (c *CalendarClient) Name() string {
	return "google:" + c.account
}

// EventsBetween lists the events of every configured calendar that overlap
// [from, to). Recurring events are expanded into their instances.
func (c *CalendarClient) EventsBetween(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	var all []*models.Event
	for _, calID := range c.calendarIDs {
		c.logger.Debug("Fetching events", "account", c.account, "calendarID", calID, "from", from, "to", to)

		var items []*calendar.Event
		err := c.service.Events.List(calID).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			OrderBy("startTime").
			Pages(ctx, func(page *calendar.Events) error {
				items = append(items, page.Items...)
				return nil
			})
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve events for calendar %s: %w", calID, err)
		}

		c.logger.Info("Fetched events from Google Calendar", "count", len(items), "calendarID", calID)
		all = append(all, c.toInternalEvents(items, calID, from.Location())...)
	}
	return all, nil
}

// toInternalEvents converts Google Calendar events to the internal Event
// model. The calendar owner, identified by calendarID, attends every event
// unless they declined it.
func (c *CalendarClient) toInternalEvents(googleEvents []*calendar.Event, calendarID string, loc *time.Location) []*models.Event {
	var internalEvents []*models.Event
	for _, item := range googleEvents {
		if item.Start == nil || item.End == nil {
			continue
		}

		start, end, allDay, err := eventTimes(item, loc)
		if err != nil {
			c.logger.Warn("Skipping event with unreadable times", "id", item.Id, "error", err)
			continue
		}

		event := &models.Event{
			ID:          item.Id,
			Title:       item.Summary,
			Description: item.Description,
			StartTime:   start,
			EndTime:     end,
			AllDay:      allDay,
			Free:        item.Status == "cancelled" || item.Transparency == "transparent",
			Location:    item.Location,
			UID:         item.ICalUID,
			Source:      fmt.Sprintf("google-%s", calendarID),
		}
		if item.Organizer != nil {
			event.Organizer = models.NormalizeAttendee(item.Organizer.Email)
		}

		ownerDeclined := false
		for _, a := range item.Attendees {
			if a.ResponseStatus == "declined" {
				ownerDeclined = ownerDeclined || a.Self
				continue
			}
			event.AddAttendee(a.Email)
			if a.Optional {
				event.Optional = append(event.Optional, models.NormalizeAttendee(a.Email))
			}
		}
		if !ownerDeclined {
			event.AddAttendee(calendarID)
		}
		internalEvents = append(internalEvents, event)
	}
	return internalEvents
}

// eventTimes reads the start and end of item. All-day events carry dates,
// which are placed at midnight in loc.
func eventTimes(item *calendar.Event, loc *time.Location) (start, end time.Time, allDay bool, err error) {
	if item.Start.DateTime == "" {
		if start, err = time.ParseInLocation(dateLayout, item.Start.Date, loc); err != nil {
			return
		}
		end, err = time.ParseInLocation(dateLayout, item.End.Date, loc)
		return start, end, true, err
	}
	if start, err = time.Parse(time.RFC3339, item.Start.DateTime); err != nil {
		return
	}
	end, err = time.Parse(time.RFC3339, item.End.DateTime)
	return start, end, false, err
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes environment variables over a local credentials.json file.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the working directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// TokenFile returns the path of the token saved for an account.
func TokenFile(accountName string) string {
	return fmt.Sprintf("token-%s.json", accountName)
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// GetTokenAccounts lists the accounts that have a saved token in the working directory.
func GetTokenAccounts() ([]string, error) {
	files, err := os.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "token-") && strings.HasSuffix(file.Name(), ".json") {
			accountName := strings.TrimSuffix(strings.TrimPrefix(file.Name(), "token-"), ".json")
			accounts = append(accounts, accountName)
		}
	}
	return accounts, nil
}
