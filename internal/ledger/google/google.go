// Package google stores the loan ledger in a Google Sheets spreadsheet.
//
// The loans sheet holds one loan per row below a header:
//
//	ID | Type | Principal | Amount Paid | EMI | Interest Rate | Tenure | Start Date | Description | Created At
//
// The plans sheet receives one summary row per recorded plan.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"debtplan/internal/core"
	"debtplan/internal/ledger"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultRowCacheTTL = 30 * time.Second

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	loansSheet    string
	plansSheet    string

	mu                 sync.Mutex
	cachedRows         [][]interface{}
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

var _ ledger.Ledger = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional sheet names: GOOGLE_LOANS_SHEET_NAME (default "Loans"),
// GOOGLE_PLANS_SHEET_NAME (default "Plans").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		loansSheet:         envOr("GOOGLE_LOANS_SHEET_NAME", "Loans"),
		plansSheet:         envOr("GOOGLE_PLANS_SHEET_NAME", "Plans"),
		cacheValidDuration: defaultRowCacheTTL,
	}, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// loanRows returns the loans sheet values, served from a short-lived cache.
func (c *Client) loanRows(ctx context.Context) ([][]interface{}, error) {
	c.mu.Lock()
	if c.cachedRows != nil && time.Now().Before(c.cacheExpiresAt) {
		rows := c.cachedRows
		c.mu.Unlock()
		return rows, nil
	}
	c.mu.Unlock()

	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:J", c.loansSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	c.mu.Lock()
	c.cachedRows = resp.Values
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()
	return resp.Values, nil
}

func (c *Client) invalidateRowCache() {
	c.mu.Lock()
	c.cachedRows = nil
	c.cacheExpiresAt = time.Time{}
	c.mu.Unlock()
}

// ListLoans implements ledger.LoanReader
func (c *Client) ListLoans(ctx context.Context) ([]core.LoanRecord, error) {
	rows, err := c.loanRows(ctx)
	if err != nil {
		return nil, err
	}
	loans, skipped := parseLoanRows(rows)
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped unreadable loan rows", "sheet", c.loansSheet, "count", skipped)
	}
	sort.SliceStable(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

// CreateLoan implements ledger.LoanWriter
func (c *Client) CreateLoan(ctx context.Context, r core.LoanRecord) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}
	rows, err := c.loanRows(ctx)
	if err != nil {
		return 0, err
	}
	loans, _ := parseLoanRows(rows)
	r.ID = nextID(loans)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	rng := fmt.Sprintf("%s!A:J", c.loansSheet)
	vr := &gsheet.ValueRange{Values: [][]interface{}{loanRow(r)}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	c.invalidateRowCache()
	if err != nil {
		return 0, fmt.Errorf("append loan to %s: %w", c.loansSheet, err)
	}

	slog.InfoContext(ctx, "Loan appended to Google Sheets", "id", r.ID, "sheet", c.loansSheet)
	return r.ID, nil
}

// UpdateLoan implements ledger.LoanWriter by rewriting the loan's row.
func (c *Client) UpdateLoan(ctx context.Context, r core.LoanRecord) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	c.invalidateRowCache()
	rows, err := c.loanRows(ctx)
	if err != nil {
		return err
	}
	rowIdx := findLoanRow(rows, r.ID)
	if rowIdx < 0 {
		return fmt.Errorf("loan %d: %w", r.ID, ledger.ErrNotFound)
	}
	cols := defaultLoanColumns()
	if len(rows) > 0 && isLoanHeader(toStrings(rows[0])) {
		cols = columnsFromHeader(toStrings(rows[0]))
	}
	if old, err := parseLoanRow(toStrings(rows[rowIdx]), cols); err == nil {
		r.CreatedAt = old.CreatedAt
	}

	rng := fmt.Sprintf("%s!A%d:J%d", c.loansSheet, rowIdx+1, rowIdx+1)
	vr := &gsheet.ValueRange{Values: [][]interface{}{loanRow(r)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	c.invalidateRowCache()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Loan updated in Google Sheets", "id", r.ID, "row", rowIdx+1)
	return nil
}

// DeleteLoan implements ledger.LoanWriter by removing the loan's row.
func (c *Client) DeleteLoan(ctx context.Context, id int64) error {
	c.invalidateRowCache()
	rows, err := c.loanRows(ctx)
	if err != nil {
		return err
	}
	rowIdx := findLoanRow(rows, id)
	if rowIdx < 0 {
		return fmt.Errorf("loan %d: %w", id, ledger.ErrNotFound)
	}

	sheetID, err := c.sheetID(ctx, c.loansSheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIdx),
					EndIndex:   int64(rowIdx + 1),
				},
			},
		}},
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	c.invalidateRowCache()
	if err != nil {
		return fmt.Errorf("delete row %d of %s: %w", rowIdx+1, c.loansSheet, err)
	}

	slog.InfoContext(ctx, "Loan deleted from Google Sheets", "id", id, "row", rowIdx+1)
	return nil
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", title)
}

// RecordPlan implements ledger.PlanRecorder. The trajectory is not kept
// in the sheet; only the summary row is.
func (c *Client) RecordPlan(ctx context.Context, s core.PlanSnapshot) (int64, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	if s.ComputedAt.IsZero() {
		s.ComputedAt = time.Now().UTC()
	}
	rng := fmt.Sprintf("%s!A:H", c.plansSheet)
	vr := &gsheet.ValueRange{Values: [][]interface{}{planRow(s)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("append plan to %s: %w", c.plansSheet, err)
	}
	var row int64
	if resp.Updates != nil {
		row = rowFromRange(resp.Updates.UpdatedRange)
	}
	return row, nil
}

// LatestPlan implements ledger.PlanReader
func (c *Client) LatestPlan(ctx context.Context, strategy core.Strategy) (core.PlanSnapshot, error) {
	if c.svc == nil {
		return core.PlanSnapshot{}, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:H", c.plansSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return core.PlanSnapshot{}, fmt.Errorf("read %s: %w", rng, err)
	}
	snap, ok := latestPlan(resp.Values, strategy)
	if !ok {
		return core.PlanSnapshot{}, fmt.Errorf("plan %s: %w", strategy, ledger.ErrNotFound)
	}
	return snap, nil
}
