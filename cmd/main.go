package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"calbridge/internal/apple"
	"calbridge/internal/credentials"
	"calbridge/internal/google"
	"calbridge/internal/microsoft"
	"calbridge/internal/model"
	"calbridge/internal/provider"
	"calbridge/internal/sqlite"
	"calbridge/internal/syncer"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "calbridge",
		Usage: "Push calendar events to Google, Apple, or Microsoft calendars.",
		Commands: []*cli.Command{
			authCommand(),
			syncCommand(),
			listCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			config, err := google.OAuthConfig(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync a batch of events from a JSON file into a provider calendar.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Required: true, Usage: "Target provider: google, apple, or microsoft."},
			&cli.StringFlag{Name: "user", Required: true, Usage: "Account identifier for credential lookup."},
			&cli.StringFlag{Name: "calendar", Usage: "Target calendar id or name. Empty means the default calendar."},
			&cli.StringFlag{Name: "events", Required: true, Usage: "Path to a JSON file with the events to sync."},
			&cli.StringFlag{Name: "db", Value: "calbridge.db", Usage: "Path to the sync ledger database."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be synced without making changes."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(os.Getenv("LOG_LEVEL"))

			events, err := loadEvents(c.String("events"))
			if err != nil {
				return err
			}

			adapter, err := newAdapter(logger, c.String("provider"))
			if err != nil {
				return err
			}

			storage, err := sqlite.Open(c.String("db"))
			if err != nil {
				return fmt.Errorf("failed to open sync ledger: %w", err)
			}
			defer storage.Close()

			s := syncer.New(logger, adapter, credentials.NewEnv(), storage)
			s.DryRun = c.Bool("dry-run")
			if s.DryRun {
				logger.Info("Performing a dry run. No changes will be made.")
			}

			results, err := s.Sync(c.Context, c.String("user"), c.String("calendar"), events)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			summarize(logger, results)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List events in a provider calendar within a time window.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Required: true, Usage: "Provider: google, apple, or microsoft."},
			&cli.StringFlag{Name: "user", Required: true, Usage: "Account identifier for credential lookup."},
			&cli.StringFlag{Name: "calendar", Usage: "Calendar id or name. Empty means the default calendar."},
			&cli.TimestampFlag{Name: "from", Layout: "2006-01-02", Required: true, Usage: "Window start (inclusive)."},
			&cli.TimestampFlag{Name: "to", Layout: "2006-01-02", Required: true, Usage: "Window end (exclusive)."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(os.Getenv("LOG_LEVEL"))

			adapter, err := newAdapter(logger, c.String("provider"))
			if err != nil {
				return err
			}

			creds, err := credentials.NewEnv().Get(c.Context, c.String("user"), adapter.Provider())
			if err != nil {
				return err
			}

			window := model.Interval{Start: *c.Timestamp("from"), End: *c.Timestamp("to")}
			events, err := adapter.ListEvents(c.Context, creds, c.String("calendar"), window)
			if err != nil {
				return fmt.Errorf("listing events: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(events)
		},
	}
}

func newAdapter(logger *slog.Logger, name string) (provider.Adapter, error) {
	p, err := model.ParseProvider(name)
	if err != nil {
		return nil, err
	}
	switch p {
	case model.ProviderGoogle:
		return google.NewAdapter(logger), nil
	case model.ProviderApple:
		return apple.NewAdapter(logger, os.Getenv("CALDAV_ENDPOINT")), nil
	case model.ProviderMicrosoft:
		return microsoft.NewAdapter(logger), nil
	}
	return nil, fmt.Errorf("unsupported provider %q", name)
}

func loadEvents(path string) ([]model.UniversalEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading events file: %w", err)
	}
	var events []model.UniversalEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parsing events file %s: %w", path, err)
	}
	return events, nil
}

func summarize(logger *slog.Logger, results []syncer.Result) {
	var created, skipped, already, failed int
	for _, r := range results {
		switch r.Outcome {
		case syncer.OutcomeCreated:
			created++
		case syncer.OutcomeConflictSkipped:
			skipped++
			logger.Warn("Event skipped due to conflicts.", "eventID", r.Event.ID, "summary", r.Event.Summary, "conflicts", len(r.Conflicts))
		case syncer.OutcomeAlreadySynced:
			already++
		case syncer.OutcomeFailed:
			failed++
			logger.Error("Event failed to sync.", "eventID", r.Event.ID, "summary", r.Event.Summary, "error", r.Err)
		}
	}
	logger.Info("Sync summary.",
		"created", created,
		"conflictSkipped", skipped,
		"alreadySynced", already,
		"failed", failed,
	)
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
