package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/L235/MWRecentChangesReport/internal/api"
	"github.com/L235/MWRecentChangesReport/internal/config"
	"github.com/L235/MWRecentChangesReport/internal/db"
	"github.com/L235/MWRecentChangesReport/internal/digest"
	"github.com/L235/MWRecentChangesReport/internal/models"
	"github.com/L235/MWRecentChangesReport/internal/ui"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to YAML config file (environment fills any gaps)")
	startFlag := flag.String("start", "", "Window start, RFC 3339 or YYYY-MM-DD (UTC)")
	endFlag := flag.String("end", "", "Window end, RFC 3339 or YYYY-MM-DD (UTC, exclusive)")
	daysFlag := flag.Int("days", 0, "Report the last N days instead of the previous week")
	dryRun := flag.Bool("dry-run", false, "Fetch and render without sending")
	preview := flag.Bool("preview", false, "Browse the changes and confirm before sending")
	archiveFlag := flag.String("archive", "", "Path to SQLite digest archive (overrides ARCHIVE_PATH)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "rc-report",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
	if *archiveFlag != "" {
		cfg.ArchivePath = *archiveFlag
	}

	window, err := resolveWindow(*startFlag, *endFlag, *daysFlag, time.Now())
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
	logger.Info("Collecting changes", "start", window.Start.Format(time.RFC3339), "end", window.End.Format(time.RFC3339))

	client, err := api.NewWikiClient(cfg.Domain, logger)
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	if err := client.Login(cfg.Username, cfg.Password); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	records, err := fetchChanges(client, window, *preview)
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	groups := digest.Aggregate(records)

	host, err := api.NormalizeDomain(cfg.Domain)
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
	report := digest.Render(groups, digest.Meta{
		Title:   api.WikiTitle(host),
		Domain:  host,
		BaseURL: client.BaseURL(),
		Window:  window,
	})

	sent := false
	if report.Empty() {
		ui.PrintSuccess(fmt.Sprintf("No changes on %s for %s, nothing to send", host, window.DateRange()))
	} else {
		sent, err = deliver(report, groups, window, cfg, logger, *dryRun, *preview)
		if err != nil {
			ui.PrintError(err.Error())
			os.Exit(1)
		}
	}

	if cfg.ArchivePath != "" {
		if err := archiveDigest(cfg.ArchivePath, report, groups, window, sent); err != nil {
			// A broken archive must not fail an otherwise completed run
			logger.Warn("Failed to archive digest", "error", err)
		}
	}

	if sent {
		ui.PrintSuccess(fmt.Sprintf("Digest sent to %s (%d changes across %d pages)",
			cfg.Recipient, digest.TotalChanges(groups), len(groups)))
	}
}

// fetchChanges retrieves the window's records, behind a spinner when the
// run is interactive
func fetchChanges(client *api.WikiClient, window models.Window, interactive bool) ([]models.ChangeRecord, error) {
	var records []models.ChangeRecord
	var skipped int
	var fetchErr error

	if interactive {
		if err := ui.WithSpinner("Fetching recent changes...", func() {
			records, skipped, fetchErr = client.FetchChanges(window)
		}); err != nil {
			return nil, err
		}
	} else {
		records, skipped, fetchErr = client.FetchChanges(window)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if skipped > 0 {
		ui.PrintWarning(fmt.Sprintf("%d malformed records skipped", skipped))
	}
	return records, nil
}

// deliver runs the dry-run, preview, or direct send path and reports
// whether the email actually went out
func deliver(report models.Report, groups []models.ChangeGroup, window models.Window, cfg *config.Config, logger *log.Logger, dryRun, preview bool) (bool, error) {
	if dryRun {
		ui.PrintDigestSummary(groups, window)
		ui.PrintSuccess("Dry run, no email sent")
		return false, nil
	}

	if preview {
		if err := ui.RunPreview(groups, window); err != nil {
			return false, err
		}
		confirm, err := ui.ConfirmSend(report.Subject, cfg.Recipient)
		if err != nil {
			return false, err
		}
		if !confirm {
			ui.PrintSuccess("Send cancelled")
			return false, nil
		}
	}

	sender := api.NewMailgunClient(cfg.MailgunDomain, cfg.MailgunAPIKey, logger)
	if err := digest.Dispatch(report, cfg.Sender, cfg.Recipient, sender, logger); err != nil {
		return false, err
	}
	return true, nil
}

// archiveDigest appends the run to the SQLite archive
func archiveDigest(path string, report models.Report, groups []models.ChangeGroup, window models.Window, sent bool) error {
	archive, err := db.Open(path)
	if err != nil {
		return err
	}
	defer archive.Close()

	return archive.RecordDigest(models.DigestRun{
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Subject:     report.Subject,
		HTML:        report.HTML,
		ChangeCount: digest.TotalChanges(groups),
		Sent:        sent,
		CreatedAt:   time.Now().UTC(),
	})
}

// resolveWindow picks the reporting interval: explicit bounds win, then
// -days, then the previous Sunday-through-Saturday week
func resolveWindow(startStr, endStr string, days int, now time.Time) (models.Window, error) {
	if startStr != "" || endStr != "" {
		if startStr == "" {
			return models.Window{}, fmt.Errorf("-end requires -start")
		}
		start, err := parseTime(startStr)
		if err != nil {
			return models.Window{}, fmt.Errorf("invalid -start: %w", err)
		}
		end := now.UTC().Truncate(time.Second)
		if endStr != "" {
			end, err = parseTime(endStr)
			if err != nil {
				return models.Window{}, fmt.Errorf("invalid -end: %w", err)
			}
		}
		w := models.Window{Start: start, End: end}
		return w, w.Validate()
	}

	if days > 0 {
		return models.LastDays(now, days), nil
	}

	return models.PreviousWeek(now), nil
}

// parseTime accepts RFC 3339 or a bare date, both interpreted as UTC
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want RFC 3339 or YYYY-MM-DD, got %q", s)
	}
	return t.UTC(), nil
}
