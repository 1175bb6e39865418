// Package cache holds best-effort key/value stores for upstream payloads.
//
// Every backend swallows its own I/O failures: a failed read is a miss and a
// failed write is a no-op, so an unavailable cache never blocks an upstream fetch.
package cache

import (
	"context"
	"encoding/json"
	"regexp"
	"time"
)

// Store persists opaque JSON payloads with a per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set requires payload to be valid JSON. The file and redis backends embed
	// it in an envelope, so Get returns it compacted and HTML-escaped rather
	// than byte-for-byte.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeKey replaces every character outside [A-Za-z0-9_-] with '_'.
func SanitizeKey(key string) string {
	return unsafeKeyChars.ReplaceAllString(key, "_")
}

// entry is the persisted envelope, timestamps in unix milliseconds.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	Expires   int64           `json:"expires"`
}

func newEntry(payload []byte, now time.Time, ttl time.Duration) entry {
	return entry{
		Data:      json.RawMessage(payload),
		Timestamp: now.UnixMilli(),
		Expires:   now.Add(ttl).UnixMilli(),
	}
}

func (e entry) expired(now time.Time) bool {
	return e.Expires < now.UnixMilli()
}
