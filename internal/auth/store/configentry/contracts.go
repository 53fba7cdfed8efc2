package configentry

import (
	"context"
	"time"
)

// Entry is an append-only, timestamped key/value record from the remote
// config collection. Values are string-encoded; integer parsing happens in
// the config cache. Entries are never updated in place: the most recent
// timestamp wins.
type Entry struct {
	Key       string
	Value     string
	Type      string
	Timestamp time.Time
}

// Store is the document-store port for config entries.
//
// LatestByKey is the primary ordered top-1 query; it can fail on deployments
// missing the composite index, in which case callers fall back to ListByKey
// and pick the newest entry client-side.
type Store interface {
	LatestByKey(ctx context.Context, key string) (*Entry, error)
	ListByKey(ctx context.Context, key string, limit int) ([]Entry, error)
}
