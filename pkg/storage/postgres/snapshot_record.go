package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"obhistory/internal/history"

	"gorm.io/datatypes"
)

// SnapshotRecord is one raw order-book snapshot row. (pair, ts_ms) is
// deliberately not unique: duplicate captures are all retained, and rows
// are never updated after insert.
type SnapshotRecord struct {
	ID uint `gorm:"primaryKey"`

	Pair string `gorm:"type:text;not null;index:idx_snapshots_pair_ts"`
	TsMs int64  `gorm:"not null;index:idx_snapshots_pair_ts"`

	Buy  datatypes.JSON `gorm:"type:jsonb;not null"`
	Sell datatypes.JSON `gorm:"type:jsonb;not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM. The name matches
// the table this service inherited from the system it replaces.
func (SnapshotRecord) TableName() string {
	return "snapshots_raw"
}

// ToSnapshotRecord converts a validated snapshot into a DB row.
func ToSnapshotRecord(snap history.Snapshot) (*SnapshotRecord, error) {
	buy, err := json.Marshal(snap.Buy)
	if err != nil {
		return nil, fmt.Errorf("encode buy levels: %w", err)
	}
	sell, err := json.Marshal(snap.Sell)
	if err != nil {
		return nil, fmt.Errorf("encode sell levels: %w", err)
	}

	return &SnapshotRecord{
		Pair: snap.Pair,
		TsMs: snap.TsMs,
		Buy:  datatypes.JSON(buy),
		Sell: datatypes.JSON(sell),
	}, nil
}
