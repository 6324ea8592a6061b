package history

import "context"

// Store is the boundary to the snapshot persistence layer. Rows are never
// updated in place: the store only inserts, range-deletes and scans.
type Store interface {
	// InsertWithRetention writes the snapshot and deletes the same pair's
	// rows with ts_ms < cutoffMs, as one atomic operation. If the delete
	// fails the insert must be rolled back with it.
	InsertWithRetention(ctx context.Context, snap Snapshot, cutoffMs int64) error

	// Scan returns up to limit rows for pair with fromMs <= ts_ms <= toMs,
	// most recent first. Rows sharing a timestamp come back in reverse
	// insertion order.
	Scan(ctx context.Context, pair string, fromMs, toMs int64, limit int) ([]Row, error)
}
