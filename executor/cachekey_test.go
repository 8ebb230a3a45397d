package executor

import (
	"strings"
	"testing"
)

func TestNewCacheKeyOrderIndependent(t *testing.T) {
	a := NewCacheKey("sheets.values", Arg("id", "abc"), Arg("range", "A1:B2"))
	b := NewCacheKey("sheets.values", Arg("range", "A1:B2"), Arg("id", "abc"))

	if a != b {
		t.Errorf("keys differ by argument order: %q vs %q", a, b)
	}
}

func TestNewCacheKeyDistinguishesArgs(t *testing.T) {
	a := NewCacheKey("op", Arg("x", 1))
	b := NewCacheKey("op", Arg("x", 2))
	c := NewCacheKey("op", Arg("y", 1))

	if a == b || a == c {
		t.Errorf("different arguments produced equal keys: %q %q %q", a, b, c)
	}
}

func TestNewCacheKeyEscapesSeparators(t *testing.T) {
	// Without escaping, a value embedding the separators would render
	// identically to two separate arguments.
	a := NewCacheKey("op", Arg("a", "1,b=2"))
	b := NewCacheKey("op", Arg("a", "1"), Arg("b", "2"))
	if a == b {
		t.Errorf("embedded separators collided: %q", a)
	}

	quoted := NewCacheKey("sheets.values",
		Arg("id", "abc"),
		Arg("range", "'War, Round 2'!A1:B2"),
	)
	plain := NewCacheKey("sheets.values",
		Arg("id", "abc"),
		Arg("range", "'War"),
		Arg(" Round 2'!A1:B2", ""),
	)
	if quoted == plain {
		t.Errorf("comma inside a quoted sheet name collided: %q", quoted)
	}
}

func TestKeyPrefix(t *testing.T) {
	key := NewCacheKey("sheets.values",
		Arg("id", "sheet1"),
		Arg("range", "S!A1"),
		Arg("render", "UNFORMATTED_VALUE"),
	)
	longer := NewCacheKey("sheets.values",
		Arg("id", "sheet10"),
		Arg("range", "S!A1"),
		Arg("render", "UNFORMATTED_VALUE"),
	)

	prefix := KeyPrefix("sheets.values", Arg("id", "sheet1"))
	if !strings.HasPrefix(string(key), prefix) {
		t.Errorf("prefix %q does not match its own key %q", prefix, key)
	}
	if strings.HasPrefix(string(longer), prefix) {
		t.Errorf("prefix %q matches a longer ID's key %q", prefix, longer)
	}
}

func TestCacheKeyOperation(t *testing.T) {
	testCases := []struct {
		name string
		key  CacheKey
		want string
	}{
		{"with args", NewCacheKey("drive.get", Arg("id", "f1")), "drive.get"},
		{"no args", NewCacheKey("drive.list"), "drive.list"},
		{"bare string", CacheKey("plain"), "plain"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.key.Operation(); got != tc.want {
				t.Errorf("Operation() = %q, want %q", got, tc.want)
			}
		})
	}
}
