package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"cashflow/internal/aggregate"
	applog "cashflow/internal/log"
	ports "cashflow/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client writes yearly summaries to a Google spreadsheet, one sheet per
// year named "<year> <sheet name>".
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string

	mu     sync.Mutex
	sheets map[string]bool // titles known to exist
}

// Ensure interface conformance
var (
	_ ports.SummaryExporter = (*Client)(nil)
	_ ports.SummaryReader   = (*Client)(nil)
)

// Options configures a Client.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = "Cash Flow"
	}

	svc, err := newSheetsService(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     base,
		sheets:        make(map[string]bool),
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	switch {
	case credentialsJSON != "":
		creds = []byte(credentialsJSON)
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		applog.FieldComponent, applog.ComponentSheets,
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportSummary overwrites the year's summary table.
func (c *Client) ExportSummary(ctx context.Context, year int, summaries [12]aggregate.MonthSummary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	title := yearPrefixedName(c.sheetBase, year)
	if err := c.ensureSheet(ctx, title); err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: summaryValues(summaries)}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, tableRange(title), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", title, err)
	}

	slog.InfoContext(ctx, "Exported monthly summary",
		applog.FieldComponent, applog.ComponentSheets,
		applog.FieldYear, year,
		"sheet", title)
	return nil
}

// ReadSummary reads the year's table back. A missing sheet or an empty
// table reports ok=false.
func (c *Client) ReadSummary(ctx context.Context, year int) ([12]aggregate.MonthSummary, bool, error) {
	var empty [12]aggregate.MonthSummary
	if c.svc == nil {
		return empty, false, errors.New("sheets service not initialized")
	}
	title := yearPrefixedName(c.sheetBase, year)
	exists, err := c.sheetExists(ctx, title)
	if err != nil || !exists {
		return empty, false, err
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, tableRange(title)).Context(ctx).Do()
	if err != nil {
		return empty, false, fmt.Errorf("read %s: %w", title, err)
	}
	if len(resp.Values) == 0 {
		return empty, false, nil
	}
	summaries, err := parseSummary(resp.Values)
	if err != nil {
		return empty, false, fmt.Errorf("parse %s: %w", title, err)
	}
	return summaries, true, nil
}

func (c *Client) sheetExists(ctx context.Context, title string) (bool, error) {
	c.mu.Lock()
	known := c.sheets[title]
	c.mu.Unlock()
	if known {
		return true, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("get spreadsheet: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			c.sheets[s.Properties.Title] = true
		}
	}
	return c.sheets[title], nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	exists, err := c.sheetExists(ctx, title)
	if err != nil || exists {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}

	c.mu.Lock()
	c.sheets[title] = true
	c.mu.Unlock()

	slog.InfoContext(ctx, "Created summary sheet",
		applog.FieldComponent, applog.ComponentSheets, "sheet", title)
	return nil
}

func yearPrefixedName(base string, year int) string {
	return fmt.Sprintf("%d %s", year, base)
}

func tableRange(title string) string {
	return fmt.Sprintf("'%s'!A1:D%d", strings.ReplaceAll(title, "'", "''"), tableRows)
}
