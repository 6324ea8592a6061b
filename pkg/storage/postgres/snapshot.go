package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"obhistory/internal/history"

	"gorm.io/gorm"
)

// InsertWithRetention writes the snapshot and purges the same pair's rows
// older than cutoffMs inside a single transaction, so the insert and its
// retention sweep commit or roll back together.
func (p *PostgresClient) InsertWithRetention(ctx context.Context, snap history.Snapshot, cutoffMs int64) error {
	record, err := ToSnapshotRecord(snap)
	if err != nil {
		return err
	}

	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}

		if err := tx.
			Where("pair = ? AND ts_ms < ?", snap.Pair, cutoffMs).
			Delete(&SnapshotRecord{}).Error; err != nil {
			return fmt.Errorf("retention delete: %w", err)
		}

		return nil
	})
}

// Scan returns up to limit rows for the pair within [fromMs, toMs],
// newest first. Timestamp ties break by descending id, i.e. reverse
// insertion order.
func (p *PostgresClient) Scan(ctx context.Context, pair string, fromMs, toMs int64, limit int) ([]history.Row, error) {
	var records []SnapshotRecord
	err := p.DB.WithContext(ctx).
		Where("pair = ? AND ts_ms BETWEEN ? AND ?", pair, fromMs, toMs).
		Order("ts_ms DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}

	rows := make([]history.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, history.Row{
			TsMs: r.TsMs,
			Buy:  json.RawMessage(r.Buy),
			Sell: json.RawMessage(r.Sell),
		})
	}
	return rows, nil
}
