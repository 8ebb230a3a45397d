package executor

import (
	"fmt"
	"sort"
	"strings"
)

// CacheKey identifies a cached result. Keys are built from the logical
// operation name plus every argument that affects the result, so
// equivalent calls always hit the same entry.
type CacheKey string

// KV is one named argument of a cache key.
type KV struct {
	Name  string
	Value any
}

// Arg is a convenience constructor for KV.
func Arg(name string, value any) KV {
	return KV{Name: name, Value: value}
}

// NewCacheKey builds a key of the form "op(a=1,b=2)". Arguments are
// sorted by name so callers passing them in different orders produce the
// same key, and separator characters inside names or values are escaped
// so distinct argument sets never collide.
func NewCacheKey(op string, args ...KV) CacheKey {
	if len(args) == 0 {
		return CacheKey(op + "()")
	}

	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = escapeKeyPart(a.Name) + "=" + escapeKeyPart(fmt.Sprint(a.Value))
	}
	sort.Strings(parts)

	return CacheKey(op + "(" + strings.Join(parts, ",") + ")")
}

// KeyPrefix renders op plus one argument in NewCacheKey's form,
// including the trailing separator, for use with InvalidatePrefix. The
// argument must be the one that sorts first in the keys being matched;
// the trailing separator keeps the prefix from matching a longer value
// that merely starts with the same bytes.
func KeyPrefix(op string, first KV) string {
	return op + "(" + escapeKeyPart(first.Name) + "=" + escapeKeyPart(fmt.Sprint(first.Value)) + ","
}

var keyPartEscaper = strings.NewReplacer(`\`, `\\`, `,`, `\,`, `=`, `\=`)

func escapeKeyPart(s string) string {
	return keyPartEscaper.Replace(s)
}

// Operation returns the logical operation name the key was built for.
func (k CacheKey) Operation() string {
	if i := strings.IndexByte(string(k), '('); i >= 0 {
		return string(k)[:i]
	}
	return string(k)
}
