package sheetaddr

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestColumnLabel(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{1, "A"},
		{2, "B"},
		{26, "Z"},
		{27, "AA"},
		{28, "AB"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
		{0, ""},
		{-3, ""},
	}

	for _, tt := range tests {
		if got := ColumnLabel(tt.index); got != tt.want {
			t.Errorf("ColumnLabel(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestColumnIndex(t *testing.T) {
	tests := []struct {
		label   string
		want    int
		wantErr bool
	}{
		{"A", 1, false},
		{"Z", 26, false},
		{"AA", 27, false},
		{"zz", 702, false},
		{"AAA", 703, false},
		{"", 0, true},
		{"A1", 0, true},
		{"!", 0, true},
	}

	for _, tt := range tests {
		got, err := ColumnIndex(tt.label)
		if (err != nil) != tt.wantErr {
			t.Errorf("ColumnIndex(%q) error = %v, wantErr %v", tt.label, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ColumnIndex(%q) = %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestColumnRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Up to three letters covers AAA..ZZZ (index 18278).
	properties.Property("label and index are inverse", prop.ForAll(
		func(i int) bool {
			got, err := ColumnIndex(ColumnLabel(i))
			return err == nil && got == i
		},
		gen.IntRange(1, 18278),
	))

	properties.TestingRun(t)
}
