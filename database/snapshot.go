package database

import (
	"context"
	"errors"
)

// Keys of the persisted snapshots.
const (
	ReportsKey = "greenmap_reports"
	NewsKey    = "greenmap_news"
	ThemeKey   = "greenmap_theme"
)

// ErrNotFound is returned by Read when nothing was ever written under a key.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore persists whole serialized collections under fixed keys.
// Implementations must be safe for concurrent use.
type SnapshotStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}
