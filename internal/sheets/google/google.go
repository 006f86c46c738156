package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"yield/internal/config"
	"yield/internal/core"
	applog "yield/internal/log"
	"yield/internal/ports"
)

var _ ports.Backend = (*Client)(nil)

// Client stores brokers and total values in two tabs of one spreadsheet.
// Both tabs start with a header row; column A holds the record id.
type Client struct {
	svc              *gsheet.Service
	spreadsheetID    string
	brokersSheet     string
	totalValuesSheet string
}

type Options struct {
	SpreadsheetID    string
	BrokersSheet     string
	TotalValuesSheet string
	CredentialsJSON  []byte
}

// NewFromConfig builds a client from the GOOGLE_* settings.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	if err := cfg.ValidateSheets(); err != nil {
		return nil, err
	}
	creds := []byte(strings.TrimSpace(cfg.GoogleServiceAccountJSON))
	if len(creds) == 0 {
		var err error
		creds, err = os.ReadFile(cfg.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	}
	return New(ctx, Options{
		SpreadsheetID:    cfg.GoogleSpreadsheetID,
		BrokersSheet:     cfg.GoogleBrokersSheetName,
		TotalValuesSheet: cfg.GoogleTotalValuesSheetName,
		CredentialsJSON:  creds,
	})
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if len(opts.CredentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(opts.CredentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		applog.FieldComponent, applog.ComponentSheets,
		"brokers_sheet", opts.BrokersSheet,
		"total_values_sheet", opts.TotalValuesSheet)

	return &Client{
		svc:              svc,
		spreadsheetID:    opts.SpreadsheetID,
		brokersSheet:     opts.BrokersSheet,
		totalValuesSheet: opts.TotalValuesSheet,
	}, nil
}

func (c *Client) ListBrokers(ctx context.Context) ([]core.Broker, error) {
	rows, err := c.read(ctx, c.brokersSheet, brokerColumns)
	if err != nil {
		return nil, err
	}
	return parseBrokerRows(rows), nil
}

// AddBroker appends a broker with a fresh id.
func (c *Client) AddBroker(ctx context.Context, b core.Broker) (core.Broker, error) {
	b.ID = ""
	return c.AppendBroker(ctx, b)
}

// AppendBroker appends b, keeping b.ID when set. A broker whose name is
// already present is rejected with core.ErrDuplicateBroker.
func (c *Client) AppendBroker(ctx context.Context, b core.Broker) (core.Broker, error) {
	b.Name = strings.TrimSpace(b.Name)
	b.Currency = strings.TrimSpace(b.Currency)
	if err := b.Validate(); err != nil {
		return core.Broker{}, err
	}
	existing, err := c.ListBrokers(ctx)
	if err != nil {
		return core.Broker{}, err
	}
	for _, e := range existing {
		if e.Name == b.Name {
			return core.Broker{}, fmt.Errorf("%w: %s", core.ErrDuplicateBroker, b.Name)
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if err := c.append(ctx, c.brokersSheet, brokerColumns, brokerRow(b)); err != nil {
		return core.Broker{}, err
	}
	return b, nil
}

func (c *Client) ListTotalValues(ctx context.Context) ([]core.TotalValueRecord, error) {
	rows, err := c.read(ctx, c.totalValuesSheet, totalValueColumns)
	if err != nil {
		return nil, err
	}
	return parseTotalValueRows(rows), nil
}

func (c *Client) AddTotalValue(ctx context.Context, rec core.TotalValueRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	rec.ID = uuid.NewString()
	if err := c.append(ctx, c.totalValuesSheet, totalValueColumns, totalValueRow(rec)); err != nil {
		return "", err
	}
	return ports.MsgTotalValueAdded, nil
}

// MirrorTotalValue appends rec under its own id unless a row with that id
// already exists. It reports whether a row was written.
func (c *Client) MirrorTotalValue(ctx context.Context, rec core.TotalValueRecord) (bool, error) {
	if rec.ID == "" {
		return false, core.ErrMissingID
	}
	rows, err := c.read(ctx, c.totalValuesSheet, totalValueColumns)
	if err != nil {
		return false, err
	}
	if rowIndexOf(rows, rec.ID) >= 0 {
		return false, nil
	}
	return true, c.append(ctx, c.totalValuesSheet, totalValueColumns, totalValueRow(rec))
}

// MirrorBroker appends b under its own id unless its name is present.
func (c *Client) MirrorBroker(ctx context.Context, b core.Broker) (bool, error) {
	if _, err := c.AppendBroker(ctx, b); err != nil {
		if errors.Is(err, core.ErrDuplicateBroker) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteTotalValue removes the row whose id matches.
func (c *Client) DeleteTotalValue(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", core.ErrMissingID
	}
	rows, err := c.read(ctx, c.totalValuesSheet, totalValueColumns)
	if err != nil {
		return "", err
	}
	idx := rowIndexOf(rows, id)
	if idx < 0 {
		return "", fmt.Errorf("total value %s: %w", id, core.ErrNotFound)
	}

	sheetID, err := c.sheetID(ctx, c.totalValuesSheet)
	if err != nil {
		return "", err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(idx),
					EndIndex:   int64(idx + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("delete row %d in %s: %w", idx+1, c.totalValuesSheet, err)
	}

	slog.InfoContext(ctx, "Total value deleted from sheet", applog.FieldComponent, applog.ComponentSheets, "id", id, "row", idx+1)
	return ports.MsgTotalValueDeleted, nil
}

func (c *Client) read(ctx context.Context, sheet, cols string) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) append(ctx context.Context, sheet, cols string, row []any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", rng, err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", title)
}
