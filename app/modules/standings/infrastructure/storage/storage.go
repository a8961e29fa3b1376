// Package standingsstorage stores season export snapshots.
package standingsstorage

import (
	"context"
	"fmt"

	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
)

// Snapshot backends.
const (
	BackendNone       = ""
	BackendS3         = "s3"
	BackendFilesystem = "filesystem"
)

var (
	_ standingsservice.SnapshotStore = (*S3Store)(nil)
	_ standingsservice.SnapshotStore = (*FileStore)(nil)
)

// Config selects and configures a snapshot backend.
type Config struct {
	Backend   string
	Directory string
	S3        S3Config
}

// New builds the configured store. BackendNone returns a nil store, which
// disables lock exports.
func New(ctx context.Context, cfg Config) (standingsservice.SnapshotStore, error) {
	switch cfg.Backend {
	case BackendNone:
		return nil, nil
	case BackendS3:
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendFilesystem:
		store, err := NewFileStore(cfg.Directory)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}
