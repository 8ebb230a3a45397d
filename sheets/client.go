// Package sheets wraps the Google Sheets API with range-sliced access.
// Ranges are sheetaddr values rather than raw strings, reads are cached,
// and every remote call goes through the shared executor.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"gapikit/executor"
	"gapikit/sheetaddr"
)

// Value input/render options accepted by the Sheets API
const (
	InputRaw         = "RAW"
	InputUserEntered = "USER_ENTERED"

	RenderFormatted   = "FORMATTED_VALUE"
	RenderUnformatted = "UNFORMATTED_VALUE"
	RenderFormula     = "FORMULA"
)

// Capacity growth buffers when a sheet has to be resized
const (
	rowGrowthBuffer = 100
	colGrowthBuffer = 10
)

// Client wraps the Sheets service. All calls are throttled, retried, and
// (for reads) cached by the embedded executor.
type Client struct {
	service *sheets.Service
	exec    *executor.Executor

	batch *updateBatcher

	valueInputOption  string
	valueRenderOption string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithValueInputOption sets how written values are interpreted
// (RAW or USER_ENTERED; the default is USER_ENTERED).
func WithValueInputOption(opt string) ClientOption {
	return func(c *Client) { c.valueInputOption = opt }
}

// WithValueRenderOption sets how read values are rendered
// (the default is UNFORMATTED_VALUE).
func WithValueRenderOption(opt string) ClientOption {
	return func(c *Client) { c.valueRenderOption = opt }
}

// NewClient creates a Sheets client from a service-account credentials
// file, with a default executor.
func NewClient(ctx context.Context, credentialsFile string, opts ...ClientOption) (*Client, error) {
	service, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return newClient(service, executor.NewDefault(), opts...), nil
}

// NewClientWithTokenSource creates a Sheets client from an oauth2 token
// source (see package gauth), with a default executor.
func NewClientWithTokenSource(ctx context.Context, ts oauth2.TokenSource, opts ...ClientOption) (*Client, error) {
	service, err := sheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return newClient(service, executor.NewDefault(), opts...), nil
}

// NewClientWithExecutor creates a Sheets client around an existing
// service and executor. Used when several wrappers share throttle state
// or in tests.
func NewClientWithExecutor(service *sheets.Service, exec *executor.Executor, opts ...ClientOption) *Client {
	return newClient(service, exec, opts...)
}

func newClient(service *sheets.Service, exec *executor.Executor, opts ...ClientOption) *Client {
	c := &Client{
		service:           service,
		exec:              exec,
		valueInputOption:  InputUserEntered,
		valueRenderOption: RenderUnformatted,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.batch = newUpdateBatcher(c)
	return c
}

// Executor exposes the underlying executor for stats and shutdown.
func (c *Client) Executor() *executor.Executor { return c.exec }

// Close flushes the executor's background queue.
func (c *Client) Close() { c.exec.Close() }

// resolveRange formats rng, fetching the sheet shape on demand when the
// address needs one (negative indices, unbounded selectors).
func (c *Client) resolveRange(ctx context.Context, spreadsheetID string, rng sheetaddr.Range) (string, error) {
	name, err := rng.Format()
	if err == nil {
		return name, nil
	}

	var unresolved *sheetaddr.UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		return "", err
	}

	shape, err := c.Shape(ctx, spreadsheetID, rng.Sheet())
	if err != nil {
		return "", err
	}
	return rng.WithShape(shape).Format()
}

// Values reads the addressed cells. Results are cached under the
// resolved range until the next write to the same spreadsheet.
func (c *Client) Values(ctx context.Context, spreadsheetID string, rng sheetaddr.Range) ([][]any, error) {
	rangeName, err := c.resolveRange(ctx, spreadsheetID, rng)
	if err != nil {
		return nil, err
	}

	key := executor.NewCacheKey("sheets.values",
		executor.Arg("id", spreadsheetID),
		executor.Arg("range", rangeName),
		executor.Arg("render", c.valueRenderOption),
	)

	result, err := c.exec.DoCached(ctx, key, executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Spreadsheets.Values.Get(spreadsheetID, rangeName).
			ValueRenderOption(c.valueRenderOption).
			Context(ctx).
			Do()
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rangeName, err)
	}

	return result.(*sheets.ValueRange).Values, nil
}

// Update writes values to the addressed cells immediately. Large writes
// are split into whole-row chunks of at most updateChunkRows rows; a
// logical row is never split across chunks. Cached reads for the
// spreadsheet are invalidated.
func (c *Client) Update(ctx context.Context, spreadsheetID string, rng sheetaddr.Range, values [][]any) error {
	if len(values) > updateChunkRows {
		return c.updateChunked(ctx, spreadsheetID, rng, values)
	}

	rangeName, err := c.resolveRange(ctx, spreadsheetID, rng)
	if err != nil {
		return err
	}

	_, err = c.exec.Do(ctx, "sheets.update", executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Spreadsheets.Values.Update(spreadsheetID, rangeName, &sheets.ValueRange{
			Values: values,
		}).
			ValueInputOption(c.valueInputOption).
			Context(ctx).
			Do()
	}))
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rangeName, err)
	}

	c.invalidateSpreadsheet(spreadsheetID)
	return nil
}

// Append appends rows after the last data row of the addressed range.
func (c *Client) Append(ctx context.Context, spreadsheetID string, rng sheetaddr.Range, rows [][]any) error {
	rangeName, err := c.resolveRange(ctx, spreadsheetID, rng)
	if err != nil {
		return err
	}

	_, err = c.exec.Do(ctx, "sheets.append", executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Spreadsheets.Values.Append(spreadsheetID, rangeName, &sheets.ValueRange{
			Values: rows,
		}).
			ValueInputOption(c.valueInputOption).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
	}))
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", rangeName, err)
	}

	c.invalidateSpreadsheet(spreadsheetID)
	return nil
}

// Clear removes all values in the addressed range.
func (c *Client) Clear(ctx context.Context, spreadsheetID string, rng sheetaddr.Range) error {
	rangeName, err := c.resolveRange(ctx, spreadsheetID, rng)
	if err != nil {
		return err
	}

	_, err = c.exec.Do(ctx, "sheets.clear", executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Spreadsheets.Values.Clear(spreadsheetID, rangeName, &sheets.ClearValuesRequest{}).
			Context(ctx).
			Do()
	}))
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", rangeName, err)
	}

	c.invalidateSpreadsheet(spreadsheetID)
	return nil
}

// Shape returns the grid dimensions of the named sheet. The spreadsheet
// metadata lookup is cached.
func (c *Client) Shape(ctx context.Context, spreadsheetID, sheetName string) (sheetaddr.Shape, error) {
	props, err := c.sheetProperties(ctx, spreadsheetID, sheetName)
	if err != nil {
		return sheetaddr.Shape{}, err
	}
	if props.GridProperties == nil {
		return sheetaddr.DefaultShape, nil
	}
	return sheetaddr.Shape{
		Rows: int(props.GridProperties.RowCount),
		Cols: int(props.GridProperties.ColumnCount),
	}, nil
}

// Header reads the first row of the named sheet as strings. Cached.
func (c *Client) Header(ctx context.Context, spreadsheetID, sheetName string) ([]string, error) {
	rng := sheetaddr.New(sheetName, sheetaddr.Span(1, 1), sheetaddr.All())
	values, err := c.Values(ctx, spreadsheetID, rng)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}

	header := make([]string, len(values[0]))
	for i, v := range values[0] {
		header[i] = NewCell(v).String()
	}
	return header, nil
}

// SheetExists checks whether a sheet with the given name exists.
func (c *Client) SheetExists(ctx context.Context, spreadsheetID, sheetName string) (bool, error) {
	_, err := c.sheetProperties(ctx, spreadsheetID, sheetName)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, errSheetNotFound) {
		return false, nil
	}
	return false, err
}

// CreateSheet adds a new sheet with the given name.
func (c *Client) CreateSheet(ctx context.Context, spreadsheetID, sheetName string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetName},
			},
		}},
	}

	// A create is not idempotent: retrying blindly can leave duplicate
	// sheets behind, so the caller decides how to handle failures.
	_, err := c.exec.DoNoRetry(ctx, "sheets.createSheet", executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	}))
	if err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
	}

	c.invalidateSpreadsheet(spreadsheetID)
	c.exec.Invalidate(spreadsheetKey(spreadsheetID))
	return nil
}

// EnsureCapacity grows the named sheet so it holds at least the required
// rows and columns, adding a buffer for future growth.
func (c *Client) EnsureCapacity(ctx context.Context, spreadsheetID, sheetName string, requiredRows, requiredCols int) error {
	props, err := c.sheetProperties(ctx, spreadsheetID, sheetName)
	if err != nil {
		return err
	}

	currentRows, currentCols := 0, 0
	if props.GridProperties != nil {
		currentRows = int(props.GridProperties.RowCount)
		currentCols = int(props.GridProperties.ColumnCount)
	}

	newRows, newCols := currentRows, currentCols
	if requiredRows > currentRows {
		newRows = requiredRows + rowGrowthBuffer
	}
	if requiredCols > currentCols {
		newCols = requiredCols + colGrowthBuffer
	}
	if newRows == currentRows && newCols == currentCols {
		return nil
	}

	log.Debug().
		Str("sheet_name", sheetName).
		Int("current_rows", currentRows).
		Int("current_cols", currentCols).
		Int("new_rows", newRows).
		Int("new_cols", newCols).
		Msg("Expanding sheet capacity")

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: props.SheetId,
					GridProperties: &sheets.GridProperties{
						RowCount:    int64(newRows),
						ColumnCount: int64(newCols),
					},
				},
				Fields: "gridProperties.rowCount,gridProperties.columnCount",
			},
		}},
	}

	_, err = c.exec.Do(ctx, "sheets.resize", executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	}))
	if err != nil {
		return fmt.Errorf("failed to resize sheet %s: %w", sheetName, err)
	}

	c.exec.Invalidate(spreadsheetKey(spreadsheetID))
	return nil
}

var errSheetNotFound = errors.New("sheet not found")

func spreadsheetKey(spreadsheetID string) executor.CacheKey {
	return executor.NewCacheKey("sheets.spreadsheet", executor.Arg("id", spreadsheetID))
}

// sheetProperties fetches (and caches) the spreadsheet metadata, then
// picks out the named sheet. An empty name selects the first sheet.
func (c *Client) sheetProperties(ctx context.Context, spreadsheetID, sheetName string) (*sheets.SheetProperties, error) {
	result, err := c.exec.DoCached(ctx, spreadsheetKey(spreadsheetID), executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	spreadsheet := result.(*sheets.Spreadsheet)
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties == nil {
			continue
		}
		if sheetName == "" || sheet.Properties.Title == sheetName {
			return sheet.Properties, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", errSheetNotFound, sheetName)
}

// invalidateSpreadsheet drops every cached read touching the spreadsheet.
func (c *Client) invalidateSpreadsheet(spreadsheetID string) {
	c.exec.InvalidatePrefix(executor.KeyPrefix("sheets.values", executor.Arg("id", spreadsheetID)))
}
