package store

import (
	"bytes"
	"encoding/json"
	"time"
)

// Entry is one cached response.
//
// StoredAt is epoch milliseconds. An entry is fresh while
// now - StoredAt < TTL; nothing expires proactively.
type Entry struct {
	Value    json.RawMessage
	StoredAt int64
}

// IsFresh reports whether the entry may still be served at now.
func (e Entry) IsFresh(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-e.StoredAt < ttl.Milliseconds()
}

// IsNull reports whether the entry holds JSON null, which reads as a miss.
func (e Entry) IsNull() bool {
	v := bytes.TrimSpace(e.Value)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}
