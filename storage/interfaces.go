package storage

import (
	"context"
	"errors"

	"apartment-tracker/models"
)

// ErrCorruptSnapshot is returned when the persisted snapshot exists but
// cannot be decoded. Callers must not treat it as an empty snapshot.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// SnapshotStore is the interface any storage backend for the last-seen
// snapshot must satisfy. Save replaces the previous snapshot wholesale.
type SnapshotStore interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Save(ctx context.Context, snapshot models.Snapshot) error
	Close() error
}
