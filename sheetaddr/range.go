// Package sheetaddr converts between A1-notation range strings and
// structured (sheet, row selector, column selector) addresses, and
// resolves slice-style selectors against a concrete sheet shape.
//
// Indices are 1-based throughout. Selector spans are inclusive on both
// ends at the package boundary; resolution math uses half-open bounds
// internally and the conversion back to inclusive A1 happens once, in
// formatting.
package sheetaddr

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape is the total row and column count of a sheet.
type Shape struct {
	Rows int
	Cols int
}

// DefaultShape is the grid a freshly created Google sheet has.
var DefaultShape = Shape{Rows: 1000, Cols: 26}

func (s Shape) known() bool { return s.Rows > 0 && s.Cols > 0 }

// Range is an immutable spreadsheet address: an optional sheet name plus
// one selector per dimension. Two ranges are interchangeable as map keys
// exactly when their canonical A1 strings match, so syntactically
// different constructions of the same cells coalesce.
type Range struct {
	sheet string
	row   Selector
	col   Selector
	shape Shape
}

// New builds a range from a sheet name and row/column selectors.
func New(sheet string, row, col Selector) Range {
	return Range{sheet: sheet, row: row, col: col}
}

// Cell builds a single-cell range.
func Cell(sheet string, row, col int) Range {
	return Range{sheet: sheet, row: At(row), col: At(col)}
}

// Entire addresses a whole sheet.
func Entire(sheet string) Range {
	return Range{sheet: sheet, row: All(), col: All()}
}

// WithShape attaches the sheet shape, enabling resolution of unbounded
// and negative selectors.
func (r Range) WithShape(s Shape) Range {
	r.shape = s
	return r
}

// Sheet returns the sheet name, which may be empty.
func (r Range) Sheet() string { return r.sheet }

// RowSelector returns the row selector.
func (r Range) RowSelector() Selector { return r.row }

// ColSelector returns the column selector.
func (r Range) ColSelector() Selector { return r.col }

// Bounds resolves both selectors into half-open 1-based bounds.
func (r Range) Bounds() (rowStart, rowEnd, colStart, colEnd int, err error) {
	rowStart, rowEnd, err = r.row.Resolve(r.shape.Rows)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	colStart, colEnd, err = r.col.Resolve(r.shape.Cols)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return rowStart, rowEnd, colStart, colEnd, nil
}

// Format renders the canonical A1 form. Whole-sheet ranges render as the
// bare sheet name. Selectors that need the sheet shape (negative
// indices, one unbounded dimension paired with a bounded one that cannot
// be expressed natively) fail with an UnresolvedReferenceError until
// WithShape has been called.
func (r Range) Format() (string, error) {
	body, err := r.rangeBody()
	if err != nil {
		return "", err
	}

	sheet := quoteSheet(r.sheet)
	switch {
	case sheet == "" && body == "":
		return "", &AddressParseError{Input: "", Reason: "empty address"}
	case sheet == "":
		return body, nil
	case body == "":
		return sheet, nil
	default:
		return sheet + "!" + body, nil
	}
}

// Key is the canonical string used for equality and map keying.
func (r Range) Key() (string, error) { return r.Format() }

// String renders the range for logs; unresolved addresses render with a
// placeholder instead of failing.
func (r Range) String() string {
	s, err := r.Format()
	if err != nil {
		return fmt.Sprintf("%s!<unresolved>", r.sheet)
	}
	return s
}

// Equal reports whether the two ranges resolve to the same canonical
// string.
func (r Range) Equal(other Range) bool {
	a, errA := r.Format()
	b, errB := other.Format()
	return errA == nil && errB == nil && a == b
}

func (r Range) rangeBody() (string, error) {
	if r.row.IsAll() && r.col.IsAll() {
		return "", nil
	}

	// One unbounded dimension has a native A1 form ("B:D", "2:4") and
	// needs no shape.
	if r.row.IsAll() && !r.col.needsShapeFor(r.shape.Cols) {
		cs, ce, err := r.col.Resolve(r.shape.Cols)
		if err != nil {
			return "", err
		}
		return ColumnLabel(cs) + ":" + ColumnLabel(ce-1), nil
	}
	if r.col.IsAll() && !r.row.needsShapeFor(r.shape.Rows) {
		rs, re, err := r.row.Resolve(r.shape.Rows)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(rs) + ":" + strconv.Itoa(re-1), nil
	}

	rs, re, cs, ce, err := r.Bounds()
	if err != nil {
		return "", err
	}

	// Half-open resolution bounds become inclusive A1 bounds here; this
	// is the only place the subtraction happens.
	startCell := ColumnLabel(cs) + strconv.Itoa(rs)
	endCell := ColumnLabel(ce-1) + strconv.Itoa(re-1)

	if startCell == endCell {
		return startCell, nil
	}
	return startCell + ":" + endCell, nil
}

// needsShapeFor reports whether resolving against the given size would
// fail for lack of shape.
func (s Selector) needsShapeFor(size int) bool {
	return size <= 0 && s.needsSize()
}

// Slice narrows the range by applying row and col selectors relative to
// the currently addressed rectangle, following nested-array semantics:
// indices count within the parent range, not within the whole sheet.
func (r Range) Slice(row, col Selector) (Range, error) {
	rs, re, cs, ce, err := r.Bounds()
	if err != nil {
		return Range{}, err
	}

	height, width := re-rs, ce-cs

	nrs, nre, err := row.Resolve(height)
	if err != nil {
		return Range{}, err
	}
	ncs, nce, err := col.Resolve(width)
	if err != nil {
		return Range{}, err
	}

	if nre-1 > height || nce-1 > width {
		return Range{}, &AddressParseError{
			Input:  r.String(),
			Reason: "slice exceeds the parent range",
		}
	}

	return Range{
		sheet: r.sheet,
		row:   Span(rs+nrs-1, rs+nre-2),
		col:   Span(cs+ncs-1, cs+nce-2),
		shape: r.shape,
	}, nil
}

// Parse converts A1-notation text into a Range. Accepted forms:
//
//	Sheet1!B2:D4    'My Sheet'!A1
//	B2:D4           A:C        2:5
//	Sheet1          (bare name: the entire sheet)
//
// Without a sheet prefix, only text containing ':' is treated as a
// range; anything else is a sheet name.
func Parse(text string) (Range, error) {
	if text == "" {
		return Range{}, &AddressParseError{Input: text, Reason: "empty input"}
	}

	sheet, body, err := splitSheet(text)
	if err != nil {
		return Range{}, err
	}

	if body == "" {
		return Entire(sheet), nil
	}

	row, col, err := parseBody(text, body)
	if err != nil {
		return Range{}, err
	}

	return Range{sheet: sheet, row: row, col: col}, nil
}

func splitSheet(text string) (sheet, body string, err error) {
	if strings.HasPrefix(text, "'") {
		var name strings.Builder
		i := 1
		for {
			j := strings.IndexByte(text[i:], '\'')
			if j < 0 {
				return "", "", &AddressParseError{Input: text, Reason: "unterminated quoted sheet name"}
			}
			name.WriteString(text[i : i+j])
			i += j + 1
			// A doubled quote is an escaped quote inside the name.
			if i < len(text) && text[i] == '\'' {
				name.WriteByte('\'')
				i++
				continue
			}
			break
		}
		sheet = name.String()
		rest := text[i:]
		if rest == "" {
			return sheet, "", nil
		}
		if !strings.HasPrefix(rest, "!") {
			return "", "", &AddressParseError{Input: text, Reason: "expected '!' after sheet name"}
		}
		body = rest[1:]
		if body == "" {
			return "", "", &AddressParseError{Input: text, Reason: "missing range after '!'"}
		}
		return sheet, body, nil
	}

	if i := strings.IndexByte(text, '!'); i >= 0 {
		sheet, body = text[:i], text[i+1:]
		if sheet == "" {
			return "", "", &AddressParseError{Input: text, Reason: "empty sheet name"}
		}
		if body == "" {
			return "", "", &AddressParseError{Input: text, Reason: "missing range after '!'"}
		}
		return sheet, body, nil
	}

	// No prefix: a colon marks a range, anything else names a sheet.
	if strings.ContainsRune(text, ':') {
		return "", text, nil
	}
	return text, "", nil
}

func parseBody(input, body string) (row, col Selector, err error) {
	parts := strings.Split(body, ":")
	switch len(parts) {
	case 1:
		ref, err := parseRef(input, parts[0])
		if err != nil {
			return Selector{}, Selector{}, err
		}
		if !ref.hasCol || !ref.hasRow {
			return Selector{}, Selector{}, &AddressParseError{
				Input:  input,
				Reason: "single reference must be a full cell like B2",
			}
		}
		return At(ref.row), At(ref.col), nil

	case 2:
		start, err := parseRef(input, parts[0])
		if err != nil {
			return Selector{}, Selector{}, err
		}
		end, err := parseRef(input, parts[1])
		if err != nil {
			return Selector{}, Selector{}, err
		}

		switch {
		case start.hasCol && start.hasRow && end.hasCol && end.hasRow:
			return Span(start.row, end.row), Span(start.col, end.col), nil
		case start.hasCol && !start.hasRow && end.hasCol && !end.hasRow:
			return All(), Span(start.col, end.col), nil
		case !start.hasCol && start.hasRow && !end.hasCol && end.hasRow:
			return Span(start.row, end.row), All(), nil
		default:
			return Selector{}, Selector{}, &AddressParseError{
				Input:  input,
				Reason: "mismatched range endpoints",
			}
		}

	default:
		return Selector{}, Selector{}, &AddressParseError{Input: input, Reason: "too many ':' separators"}
	}
}

type cellRef struct {
	col, row       int
	hasCol, hasRow bool
}

func parseRef(input, tok string) (cellRef, error) {
	if tok == "" {
		return cellRef{}, &AddressParseError{Input: input, Reason: "empty range endpoint"}
	}

	i := 0
	for i < len(tok) && isLetter(tok[i]) {
		i++
	}
	letters, digits := tok[:i], tok[i:]

	var ref cellRef
	if letters != "" {
		c, err := ColumnIndex(letters)
		if err != nil {
			return cellRef{}, err
		}
		ref.col, ref.hasCol = c, true
	}
	if digits != "" {
		r, err := strconv.Atoi(digits)
		if err != nil {
			return cellRef{}, &AddressParseError{Input: input, Reason: "malformed cell reference"}
		}
		if r < 1 {
			return cellRef{}, &AddressParseError{Input: input, Reason: "row numbers start at 1"}
		}
		ref.row, ref.hasRow = r, true
	}
	if !ref.hasCol && !ref.hasRow {
		return cellRef{}, &AddressParseError{Input: input, Reason: "empty range endpoint"}
	}
	return ref, nil
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// quoteSheet wraps the sheet name in single quotes when A1 notation
// requires it (anything beyond letters, digits, and underscores).
func quoteSheet(sheet string) string {
	if sheet == "" {
		return ""
	}
	for _, c := range sheet {
		plain := c == '_' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !plain {
			return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
		}
	}
	return sheet
}
