package cart

import "context"

// SnapshotStore persists the full cart as one opaque snapshot per user.
// Every mutation rewrites the whole snapshot, so last-writer-wins is the only
// consistency guarantee.
type SnapshotStore interface {
	// Load returns the raw snapshot and whether one exists.
	Load(ctx context.Context, userID string) ([]byte, bool, error)
	// Save overwrites the snapshot.
	Save(ctx context.Context, userID string, data []byte) error
}
