package sheetaddr

import "fmt"

type selectorKind int

const (
	kindAll selectorKind = iota
	kindIndex
	kindSpan
)

// Selector picks rows or columns along one dimension of a sheet. It is
// one of: an absolute 1-based index, a bounded span (1-based, inclusive
// on both ends), or the whole dimension. Negative values count from the
// end of the dimension and stay unresolved until a shape is known.
type Selector struct {
	kind       selectorKind
	index      int
	start, end int
	step       int
}

// At selects the single row or column i (1-based; negative counts from
// the end).
func At(i int) Selector {
	return Selector{kind: kindIndex, index: i}
}

// Span selects rows or columns start through end, inclusive.
func Span(start, end int) Selector {
	return Selector{kind: kindSpan, start: start, end: end}
}

// SpanStep is Span with an explicit stride. Any stride other than 1 is
// rejected at resolution time with an UnsupportedSliceError.
func SpanStep(start, end, step int) Selector {
	return Selector{kind: kindSpan, start: start, end: end, step: step}
}

// All selects the entire dimension.
func All() Selector {
	return Selector{kind: kindAll}
}

// IsAll reports whether the selector spans the whole dimension.
func (s Selector) IsAll() bool { return s.kind == kindAll }

// needsSize reports whether resolving the selector requires the
// dimension size.
func (s Selector) needsSize() bool {
	switch s.kind {
	case kindAll:
		return true
	case kindIndex:
		return s.index < 0
	case kindSpan:
		return s.start < 0 || s.end < 0
	}
	return false
}

// Resolve converts the selector into concrete half-open 1-based bounds
// against a dimension of the given size. size <= 0 means the size is
// unknown; selectors that need it then fail with an
// UnresolvedReferenceError.
func (s Selector) Resolve(size int) (start, endExclusive int, err error) {
	if s.step != 0 && s.step != 1 {
		return 0, 0, &UnsupportedSliceError{Step: s.step}
	}

	switch s.kind {
	case kindAll:
		if size <= 0 {
			return 0, 0, &UnresolvedReferenceError{Detail: "unbounded selector"}
		}
		return 1, size + 1, nil

	case kindIndex:
		i, err := resolveIndex(s.index, size)
		if err != nil {
			return 0, 0, err
		}
		return i, i + 1, nil

	case kindSpan:
		a, err := resolveIndex(s.start, size)
		if err != nil {
			return 0, 0, err
		}
		b, err := resolveIndex(s.end, size)
		if err != nil {
			return 0, 0, err
		}
		if b < a {
			return 0, 0, &AddressParseError{
				Input:  fmt.Sprintf("%d:%d", s.start, s.end),
				Reason: "span end precedes span start",
			}
		}
		return a, b + 1, nil
	}

	return 0, 0, &AddressParseError{Input: "", Reason: "empty selector"}
}

// resolveIndex maps a possibly-negative 1-based index to an absolute
// one. Index 0 is invalid.
func resolveIndex(i, size int) (int, error) {
	if i == 0 {
		return 0, &AddressParseError{Input: "0", Reason: "indices are 1-based; 0 is invalid"}
	}
	if i > 0 {
		return i, nil
	}
	if size <= 0 {
		return 0, &UnresolvedReferenceError{Detail: fmt.Sprintf("negative index %d", i)}
	}
	resolved := size + i + 1
	if resolved < 1 {
		return 0, &AddressParseError{
			Input:  fmt.Sprint(i),
			Reason: fmt.Sprintf("negative index out of range for size %d", size),
		}
	}
	return resolved, nil
}
