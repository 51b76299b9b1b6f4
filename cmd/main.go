package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"findslot/internal/google"
	"findslot/internal/icloud"
	"findslot/internal/ics"
	"findslot/internal/planner"
	"findslot/internal/schedule"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "findslot",
		Usage: "Find the best time in a day for a meeting across calendars.",
		Commands: []*cli.Command{
			authCommand(),
			findCommand(),
		},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to read its calendars.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			config, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Fprintf(c.App.Writer, "Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			reader := bufio.NewReader(os.Stdin)
			authCode := prompt(c.App.Writer, reader, "Enter Authorization Code: ")

			token, err := google.TokenFromWeb(c.Context, config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			accountName := prompt(c.App.Writer, reader, "Enter a name for this account (e.g., 'personal', 'work'): ")
			if accountName == "" {
				return fmt.Errorf("account name must not be empty")
			}
			tokenFile := google.TokenFile(accountName)

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func prompt(w io.Writer, r *bufio.Reader, question string) string {
	fmt.Fprint(w, question)
	answer, _ := r.ReadString('\n')
	return strings.TrimSpace(answer)
}

func findCommand() *cli.Command {
	return &cli.Command{
		Name:      "find",
		Usage:     "List the windows on a day in which a meeting fits.",
		UsageText: "findslot find --duration 30 -a alice@example.com -o bob@example.com --ics bob@example.com=bob.ics",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "Day to plan, as YYYY-MM-DD (default: today)"},
			&cli.IntFlag{Name: "duration", Aliases: []string{"d"}, Value: 30, Usage: "Meeting length in minutes"},
			&cli.StringSliceFlag{Name: "attendee", Aliases: []string{"a"}, Usage: "Mandatory attendee (repeatable)"},
			&cli.StringSliceFlag{Name: "optional", Aliases: []string{"o"}, Usage: "Optional attendee (repeatable)"},
			&cli.StringSliceFlag{Name: "ics", Usage: "Read events from an .ics file, as [owner=]path (repeatable)"},
			&cli.BoolFlag{Name: "google", Usage: "Read events from every authenticated Google account"},
			&cli.StringFlag{Name: "google-calendars", EnvVars: []string{"GOOGLE_CALENDAR_IDS"}, Usage: "Comma-separated Google calendar IDs (default: all calendars of each account)"},
			&cli.BoolFlag{Name: "icloud", Usage: "Read events from the configured iCloud calendar"},
			&cli.StringFlag{Name: "timezone", EnvVars: []string{"PRIMARY_TIMEZONE"}, Value: "UTC", Usage: "Time zone that defines the day"},
			&cli.IntFlag{Name: "book", Usage: "Book window N of the result in the iCloud calendar"},
			&cli.StringFlag{Name: "title", Value: "Meeting", Usage: "Title of the booked meeting"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log the booking without making changes."},
			&cli.BoolFlag{Name: "json", Usage: "Print the windows as JSON"},
		},
		Action: runFind,
	}
}

func runFind(c *cli.Context) error {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := setupLogger(logLevel)

	loc, err := time.LoadLocation(c.String("timezone"))
	if err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", c.String("timezone"), err)
	}

	day := time.Now().In(loc)
	if c.IsSet("date") {
		if day, err = time.ParseInLocation(time.DateOnly, c.String("date"), loc); err != nil {
			return fmt.Errorf("invalid date '%s': %w", c.String("date"), err)
		}
	}

	var sources []planner.Source
	for _, spec := range c.StringSlice("ics") {
		s, err := ics.NewFileSource(spec, loc)
		if err != nil {
			return err
		}
		sources = append(sources, s)
	}

	if c.Bool("google") {
		gSources, err := googleSources(c, logger)
		if err != nil {
			return err
		}
		sources = append(sources, gSources...)
	}

	// A dry run never writes, so booking alone needs no iCloud connection then.
	var booker planner.Booker
	if c.Bool("icloud") || (c.IsSet("book") && !c.Bool("dry-run")) {
		iClient, err := icloud.NewClient(c.Context, logger, os.Getenv("ICLOUD_USERNAME"), os.Getenv("ICLOUD_APP_SPECIFIC_PASSWORD"), os.Getenv("ICLOUD_CALENDAR_NAME"), os.Getenv("ICLOUD_OWNER"))
		if err != nil {
			return fmt.Errorf("failed to create icloud client: %w", err)
		}
		if c.Bool("icloud") {
			sources = append(sources, iClient)
		}
		booker = iClient
	}

	if len(sources) == 0 {
		logger.Warn("No calendar sources given, every attendee is treated as free.")
	}

	p := planner.NewPlanner(logger, sources, booker, c.Bool("dry-run"), loc)
	plan, err := p.Plan(c.Context, planner.Request{
		Day:       day,
		Duration:  time.Duration(c.Int("duration")) * time.Minute,
		Mandatory: c.StringSlice("attendee"),
		Optional:  c.StringSlice("optional"),
		Title:     c.String("title"),
	})
	if err != nil {
		return fmt.Errorf("failed to plan meeting: %w", err)
	}

	if err := printPlan(c.App.Writer, plan, c.Bool("json")); err != nil {
		return err
	}

	if c.IsSet("book") {
		event, err := p.Book(c.Context, plan, c.Int("book"))
		if err != nil {
			return err
		}
		verb := "Booked"
		if c.Bool("dry-run") {
			verb = "Would book"
		}
		fmt.Fprintf(c.App.Writer, "%s %q at %s.\n", verb, event.Title, event.StartTime.Format(time.DateTime))
	}
	return nil
}

// googleSources creates a client for every account that has a saved token.
func googleSources(c *cli.Context, logger *slog.Logger) ([]planner.Source, error) {
	accounts, err := google.GetTokenAccounts()
	if err != nil {
		return nil, fmt.Errorf("could not find any google accounts, did you run auth command? %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no google accounts found. Run the 'auth' command first")
	}

	var calendarIDs []string
	for _, id := range strings.Split(c.String("google-calendars"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			calendarIDs = append(calendarIDs, id)
		}
	}

	var sources []planner.Source
	for _, acc := range accounts {
		gClient, err := google.NewClient(c.Context, logger, os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), acc, calendarIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to create google client for account %s: %w", acc, err)
		}
		sources = append(sources, gClient)
	}
	logger.Info("Initialized Google clients for all accounts.", "count", len(sources))
	return sources, nil
}

type windowJSON struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Minutes int       `json:"minutes"`
}

func printPlan(w io.Writer, plan *planner.Plan, asJSON bool) error {
	if asJSON {
		out := make([]windowJSON, 0, len(plan.Windows))
		for _, win := range plan.Windows {
			out = append(out, windowJSON{Start: win.Start, End: win.End, Minutes: win.Minutes()})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(plan.Windows) == 0 {
		fmt.Fprintln(w, "No meeting window found.")
		return nil
	}
	for i, win := range plan.Windows {
		fmt.Fprintf(w, "%d. %s-%s (%d min)\n", i+1, clock(win.Start, win.Range.Start()), clock(win.End, win.Range.End()), win.Minutes())
	}
	return nil
}

// clock formats t as HH:MM, writing the end of the day as 24:00.
func clock(t time.Time, minute int) string {
	if minute == schedule.EndOfDay {
		return "24:00"
	}
	return t.Format("15:04")
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
