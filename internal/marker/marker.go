package marker

import (
	"strings"
	"time"
)

// Marker is the persisted read position for one list: the last-seen post id
// and, when the platform exposed one, its timestamp.
type Marker struct {
	List      string
	PostID    string
	Timestamp *time.Time
}

const (
	keyPrefix = "list-name-"
	keySuffix = "-time"
)

// Key derives the storage key for a list's marker.
func Key(list string) string {
	return keyPrefix + list + keySuffix
}

// KeyPrefix is the storage prefix shared by every marker key.
func KeyPrefix() string {
	return keyPrefix
}

// ListFromKey inverts Key. ok is false for keys written by other features.
func ListFromKey(key string) (string, bool) {
	if len(key) <= len(keyPrefix)+len(keySuffix) {
		return "", false
	}
	if !strings.HasPrefix(key, keyPrefix) || !strings.HasSuffix(key, keySuffix) {
		return "", false
	}
	return key[len(keyPrefix) : len(key)-len(keySuffix)], true
}

// Encode renders the wire value "<isoTimestamp>,<postId>". The timestamp
// field is empty when unknown.
func Encode(ts *time.Time, postID string) string {
	var sb strings.Builder
	if ts != nil {
		sb.WriteString(ts.UTC().Format(time.RFC3339))
	}
	sb.WriteString(",")
	sb.WriteString(postID)
	return sb.String()
}

// Decode parses a stored marker value. It never fails: malformed input comes
// back as (nil, ""), which callers treat as marker-not-found. Values written
// by earlier releases carried only a timestamp, without the comma or the id.
func Decode(raw string) (*time.Time, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}

	tsField, idField, hasComma := strings.Cut(raw, ",")
	if !hasComma {
		// Legacy value: a bare timestamp.
		if ts, err := time.Parse(time.RFC3339, tsField); err == nil {
			return &ts, ""
		}
		return nil, ""
	}

	var ts *time.Time
	if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(tsField)); err == nil {
		ts = &parsed
	}
	id := strings.TrimSpace(strings.TrimSuffix(idField, ","))
	return ts, id
}

// sameInstant compares two optional timestamps.
func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
