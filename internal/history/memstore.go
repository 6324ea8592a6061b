package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. It backs the unit tests and lets the
// service run without Postgres.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string][]memRow // keyed by pair, in insertion order
}

type memRow struct {
	id  int64
	row Row
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[string][]memRow),
	}
}

func (m *MemoryStore) InsertWithRetention(ctx context.Context, snap Snapshot, cutoffMs int64) error {
	buy, err := json.Marshal(snap.Buy)
	if err != nil {
		return fmt.Errorf("encode buy levels: %w", err)
	}
	sell, err := json.Marshal(snap.Sell)
	if err != nil {
		return fmt.Errorf("encode sell levels: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	rows := append(m.rows[snap.Pair], memRow{
		id:  m.nextID,
		row: Row{TsMs: snap.TsMs, Buy: buy, Sell: sell},
	})

	// Retention sweep for this pair only, in the same critical section as
	// the insert.
	kept := rows[:0]
	for _, r := range rows {
		if r.row.TsMs >= cutoffMs {
			kept = append(kept, r)
		}
	}
	m.rows[snap.Pair] = kept

	return nil
}

func (m *MemoryStore) Scan(ctx context.Context, pair string, fromMs, toMs int64, limit int) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []memRow
	for _, r := range m.rows[pair] {
		if r.row.TsMs >= fromMs && r.row.TsMs <= toMs {
			matched = append(matched, r)
		}
	}

	// Newest first; equal timestamps in reverse insertion order, matching
	// the Postgres store's ORDER BY ts_ms DESC, id DESC.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].row.TsMs != matched[j].row.TsMs {
			return matched[i].row.TsMs > matched[j].row.TsMs
		}
		return matched[i].id > matched[j].id
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]Row, 0, len(matched))
	for _, r := range matched {
		out = append(out, r.row)
	}
	return out, nil
}

// CountAll reports the total number of stored snapshots across all pairs.
func (m *MemoryStore) CountAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, rows := range m.rows {
		total += len(rows)
	}
	return total
}
