package sheetaddr

import "fmt"

// AddressParseError reports malformed range text or an invalid index.
type AddressParseError struct {
	Input  string
	Reason string
}

func (e *AddressParseError) Error() string {
	return fmt.Sprintf("invalid range %q: %s", e.Input, e.Reason)
}

// UnsupportedSliceError reports a strided slice selector. Strides are
// not expressible in A1 notation and are rejected rather than silently
// ignored.
type UnsupportedSliceError struct {
	Step int
}

func (e *UnsupportedSliceError) Error() string {
	return fmt.Sprintf("strided slices are not supported (step %d)", e.Step)
}

// UnresolvedReferenceError reports an address that needs shape-based
// resolution (negative index, unbounded selector) used before the sheet
// shape is known.
type UnresolvedReferenceError struct {
	Detail string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("address requires a known sheet shape: %s", e.Detail)
}
