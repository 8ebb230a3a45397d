package sheets

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/sheets/v4"

	"gapikit/executor"
	"gapikit/sheetaddr"
)

// updateChunkRows bounds the number of rows sent in a single values
// update. Chunk boundaries always fall between rows, so a logical row is
// never split across requests.
const updateChunkRows = 100

// updateChunked splits a large write into consecutive whole-row blocks,
// each addressed by slicing the original range.
func (c *Client) updateChunked(ctx context.Context, spreadsheetID string, rng sheetaddr.Range, values [][]any) error {
	if _, _, _, _, err := rng.Bounds(); err != nil {
		shape, serr := c.Shape(ctx, spreadsheetID, rng.Sheet())
		if serr != nil {
			return serr
		}
		rng = rng.WithShape(shape)
	}

	for start := 0; start < len(values); start += updateChunkRows {
		end := start + updateChunkRows
		if end > len(values) {
			end = len(values)
		}

		chunk, err := rng.Slice(sheetaddr.Span(start+1, end), sheetaddr.All())
		if err != nil {
			return fmt.Errorf("failed to address update chunk: %w", err)
		}

		if err := c.Update(ctx, spreadsheetID, chunk, values[start:end]); err != nil {
			return err
		}
	}

	log.Debug().
		Str("spreadsheet_id", spreadsheetID).
		Int("rows", len(values)).
		Int("chunk_rows", updateChunkRows).
		Msg("Completed chunked update")

	return nil
}

// updateBatcher coalesces queued updates per spreadsheet, keyed by the
// canonical range string: a later write to the same range replaces the
// earlier one, so one batchUpdate carries at most one payload per range.
type updateBatcher struct {
	client *Client

	mu      sync.Mutex
	pending map[string]*spreadsheetBatch
}

type spreadsheetBatch struct {
	order  []string
	values map[string][][]any
}

func newUpdateBatcher(c *Client) *updateBatcher {
	return &updateBatcher{
		client:  c,
		pending: make(map[string]*spreadsheetBatch),
	}
}

// QueueUpdate stages a values write for the next Flush. Writes to ranges
// that resolve to the same cells coalesce, last write wins.
func (c *Client) QueueUpdate(ctx context.Context, spreadsheetID string, rng sheetaddr.Range, values [][]any) error {
	rangeName, err := c.resolveRange(ctx, spreadsheetID, rng)
	if err != nil {
		return err
	}

	c.batch.mu.Lock()
	defer c.batch.mu.Unlock()

	batch, ok := c.batch.pending[spreadsheetID]
	if !ok {
		batch = &spreadsheetBatch{values: make(map[string][][]any)}
		c.batch.pending[spreadsheetID] = batch
	}
	if _, exists := batch.values[rangeName]; !exists {
		batch.order = append(batch.order, rangeName)
	}
	batch.values[rangeName] = values

	log.Debug().
		Str("spreadsheet_id", spreadsheetID).
		Str("range", rangeName).
		Int("pending_ranges", len(batch.order)).
		Msg("Staged batched update")

	return nil
}

// Flush sends all staged updates for the spreadsheet in one batchUpdate
// call and clears the stage.
func (c *Client) Flush(ctx context.Context, spreadsheetID string) error {
	c.batch.mu.Lock()
	batch := c.batch.pending[spreadsheetID]
	delete(c.batch.pending, spreadsheetID)
	c.batch.mu.Unlock()

	if batch == nil || len(batch.order) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(batch.order))
	for _, rangeName := range batch.order {
		data = append(data, &sheets.ValueRange{
			Range:  rangeName,
			Values: batch.values[rangeName],
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: c.valueInputOption,
		Data:             data,
	}

	_, err := c.exec.Do(ctx, "sheets.batchUpdate", executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	}))
	if err != nil {
		return fmt.Errorf("failed to flush batched updates: %w", err)
	}

	c.invalidateSpreadsheet(spreadsheetID)
	return nil
}

// RangeValues pairs a range with the values destined for it.
type RangeValues struct {
	Range  sheetaddr.Range
	Values [][]any
}

// BatchUpdate stages every update and flushes them as one batchUpdate
// call. Updates addressing the same cells coalesce, last write wins.
func (c *Client) BatchUpdate(ctx context.Context, spreadsheetID string, updates []RangeValues) error {
	for _, u := range updates {
		if err := c.QueueUpdate(ctx, spreadsheetID, u.Range, u.Values); err != nil {
			return err
		}
	}
	return c.Flush(ctx, spreadsheetID)
}

// FlushAll flushes staged updates for every spreadsheet.
func (c *Client) FlushAll(ctx context.Context) error {
	c.batch.mu.Lock()
	ids := make([]string, 0, len(c.batch.pending))
	for id := range c.batch.pending {
		ids = append(ids, id)
	}
	c.batch.mu.Unlock()

	for _, id := range ids {
		if err := c.Flush(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
