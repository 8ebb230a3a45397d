package diskcache

import (
	"os"
	"testing"
	"time"
)

type fileMeta struct {
	ID   string
	Name string
	Size int64
}

func newTestCache(t *testing.T) (*Cache, *time.Time) {
	t.Helper()
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	clock := time.Now()
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestPutGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)

	in := fileMeta{ID: "abc", Name: "report.csv", Size: 42}
	if err := c.Put("drive.get(id=abc)", in); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var out fileMeta
	hit, err := c.Get("drive.get(id=abc)", time.Minute, &out)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit {
		t.Fatal("want a hit for a fresh entry")
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestGetMissWhenAbsent(t *testing.T) {
	c, _ := newTestCache(t)

	var out fileMeta
	hit, err := c.Get("drive.get(id=missing)", time.Minute, &out)
	if err != nil || hit {
		t.Errorf("Get = (%v, %v), want a clean miss", hit, err)
	}
}

func TestGetMissWhenStale(t *testing.T) {
	c, clock := newTestCache(t)

	if err := c.Put("k", fileMeta{ID: "x"}); err != nil {
		t.Fatal(err)
	}

	*clock = clock.Add(2 * time.Minute)

	var out fileMeta
	hit, err := c.Get("k", time.Minute, &out)
	if err != nil || hit {
		t.Errorf("Get = (%v, %v), want a miss past maxAge", hit, err)
	}

	// Age limit 0 disables staleness checks.
	hit, err = c.Get("k", 0, &out)
	if err != nil || !hit {
		t.Errorf("Get with maxAge 0 = (%v, %v), want a hit", hit, err)
	}
}

func TestGetMissWhenCorrupt(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Put("k", fileMeta{ID: "x"}); err != nil {
		t.Fatal(err)
	}

	metaPath, _ := c.paths("k")
	if err := os.WriteFile(metaPath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out fileMeta
	hit, err := c.Get("k", time.Minute, &out)
	if err != nil || hit {
		t.Errorf("Get = (%v, %v), want a miss for corrupt metadata", hit, err)
	}

	// The corrupt entry is gone, not just skipped.
	if _, err := os.Stat(metaPath); !os.IsNotExist(err) {
		t.Error("corrupt metadata must be removed")
	}
}

func TestGetMissWhenPayloadMissing(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Put("k", fileMeta{ID: "x"}); err != nil {
		t.Fatal(err)
	}

	_, payloadPath := c.paths("k")
	if err := os.Remove(payloadPath); err != nil {
		t.Fatal(err)
	}

	var out fileMeta
	hit, err := c.Get("k", time.Minute, &out)
	if err != nil || hit {
		t.Errorf("Get = (%v, %v), want a miss without a payload", hit, err)
	}
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Put("k", fileMeta{ID: "x"}); err != nil {
		t.Fatal(err)
	}
	c.Invalidate("k")

	var out fileMeta
	hit, _ := c.Get("k", time.Minute, &out)
	if hit {
		t.Error("invalidated entry must miss")
	}
}

func TestKeyNormalization(t *testing.T) {
	a := Key("drive.get", map[string]any{"id": "x", "fields": "name"})
	b := Key("drive.get", map[string]any{"fields": "name", "id": "x"})
	if a != b {
		t.Errorf("argument order changed the key: %q vs %q", a, b)
	}
	if want := "drive.get(fields=name,id=x)"; a != want {
		t.Errorf("Key = %q, want %q", a, want)
	}

	if Key("drive.get", nil) != "drive.get()" {
		t.Errorf("empty args: got %q", Key("drive.get", nil))
	}

	// A value embedding the separators must not collide with two
	// separate arguments.
	c := Key("op", map[string]any{"a": "1,b=2"})
	d := Key("op", map[string]any{"a": "1", "b": "2"})
	if c == d {
		t.Errorf("embedded separators collided: %q", c)
	}
}

func TestOverwriteReplacesValue(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Put("k", fileMeta{ID: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("k", fileMeta{ID: "new"}); err != nil {
		t.Fatal(err)
	}

	var out fileMeta
	hit, err := c.Get("k", time.Minute, &out)
	if err != nil || !hit {
		t.Fatalf("Get = (%v, %v), want a hit", hit, err)
	}
	if out.ID != "new" {
		t.Errorf("ID = %q, want the overwritten value", out.ID)
	}
}
