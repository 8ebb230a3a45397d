package sheets

import (
	"fmt"
	"strconv"
)

// Cell provides type-safe access to Google Sheets cell values. The
// Sheets API traffics in [][]any; this wrapper keeps that the only layer
// where untyped values appear.
type Cell struct {
	raw any
}

// NewCell wraps a raw cell value from the Sheets API
func NewCell(raw any) Cell {
	return Cell{raw: raw}
}

// String returns the cell value as a string
func (c Cell) String() string {
	if c.raw == nil {
		return ""
	}
	if s, ok := c.raw.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", c.raw)
}

// Int returns the cell value as an int
func (c Cell) Int() int {
	return int(c.Int64())
}

// Int64 returns the cell value as an int64
func (c Cell) Int64() int64 {
	switch v := c.raw.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return 0
}

// Int64Ptr returns the cell value as *int64, or nil when the cell is empty
func (c Cell) Int64Ptr() *int64 {
	if c.raw == nil || c.raw == "" {
		return nil
	}
	i := c.Int64()
	if i == 0 {
		return nil
	}
	return &i
}

// Float64 returns the cell value as a float64
func (c Cell) Float64() float64 {
	switch v := c.raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

// Bool returns the cell value as a bool. Unformatted Sheets booleans
// arrive as true/false; formatted ones as "TRUE"/"FALSE".
func (c Cell) Bool() bool {
	switch v := c.raw.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return false
}

// IsEmpty reports whether the cell holds no value
func (c Cell) IsEmpty() bool {
	return c.raw == nil || c.raw == ""
}
