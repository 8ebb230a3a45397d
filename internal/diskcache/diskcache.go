// Package diskcache persists results of expensive idempotent lookups
// across process restarts. Each entry is a pair of files under the cache
// directory, named by the SHA-256 of the normalized key:
//
//	<hash>.json  metadata: the key and the RFC3339 store time
//	<hash>.gob   the gob-encoded payload
//
// An entry is fresh while now - storedAt <= maxAge. Corrupt or
// half-written entries read as misses and are removed.
package diskcache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache is a directory-backed store for gob-encodable values.
type Cache struct {
	dir string

	// now is replaceable in tests
	now func() time.Time
}

type metadata struct {
	Key      string    `json:"key"`
	StoredAt time.Time `json:"stored_at"`
}

// New creates the cache directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir, now: time.Now}, nil
}

// Key normalizes an operation name and arguments into a cache key:
// "op(a=1,b=2)" with arguments sorted so ordering at the call site does
// not affect the key, and separators escaped so distinct argument sets
// never collide.
func Key(op string, args map[string]any) string {
	parts := make([]string, 0, len(args))
	for name, value := range args {
		parts = append(parts, escapePart(name)+"="+escapePart(fmt.Sprint(value)))
	}
	sort.Strings(parts)
	return op + "(" + strings.Join(parts, ",") + ")"
}

var partEscaper = strings.NewReplacer(`\`, `\\`, `,`, `\,`, `=`, `\=`)

func escapePart(s string) string {
	return partEscaper.Replace(s)
}

// Get decodes the cached value for key into out. It reports a miss when
// the entry is absent, stale, or unreadable.
func (c *Cache) Get(key string, maxAge time.Duration, out any) (bool, error) {
	metaPath, payloadPath := c.paths(key)

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return false, nil
	}

	var meta metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		log.Warn().Str("path", metaPath).Err(err).Msg("Removing corrupt cache metadata")
		c.remove(key)
		return false, nil
	}

	if maxAge > 0 && c.now().Sub(meta.StoredAt) > maxAge {
		return false, nil
	}

	f, err := os.Open(payloadPath)
	if err != nil {
		c.remove(key)
		return false, nil
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(out); err != nil {
		log.Warn().Str("path", payloadPath).Err(err).Msg("Removing corrupt cache payload")
		c.remove(key)
		return false, nil
	}

	return true, nil
}

// Put stores value under key. The payload is written before the
// metadata, so a crash in between leaves an entry that reads as a miss.
func (c *Cache) Put(key string, value any) error {
	metaPath, payloadPath := c.paths(key)

	f, err := os.Create(payloadPath)
	if err != nil {
		return fmt.Errorf("failed to write cache payload: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(value); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write cache payload: %w", err)
	}

	meta, err := json.Marshal(metadata{Key: key, StoredAt: c.now()})
	if err != nil {
		return fmt.Errorf("failed to encode cache metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, meta, 0o644); err != nil {
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}

	return nil
}

// Invalidate removes the entry for key.
func (c *Cache) Invalidate(key string) {
	c.remove(key)
}

func (c *Cache) paths(key string) (metaPath, payloadPath string) {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(c.dir, name+".json"), filepath.Join(c.dir, name+".gob")
}

func (c *Cache) remove(key string) {
	metaPath, payloadPath := c.paths(key)
	os.Remove(metaPath)
	os.Remove(payloadPath)
}
