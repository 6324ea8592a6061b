package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"obhistory/config"

	"go.uber.org/zap"
)

func newTestService(store Store, now time.Time) *Service {
	svc := NewService(store, config.HistoryConfig{}, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

// go test -v --run TestIngestThenQuery
func TestIngestThenQuery(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	svc := newTestService(NewMemoryStore(), now)
	ctx := context.Background()

	req := IngestRequest{
		Pair: "btcidr",
		TsMs: now.UnixMilli() - 1000,
		Buy:  []Level{level("100", "1"), level("105", "2")},
		Sell: []Level{level("110", "1"), level("108", "3")},
	}
	if err := svc.Ingest(ctx, req); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	res, err := svc.Query(ctx, QueryRequest{Pair: "btcidr"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if res.Count != 1 || len(res.Rows) != 1 {
		t.Fatalf("count = %d, rows = %d, want 1", res.Count, len(res.Rows))
	}
	row := res.Rows[0]
	if row.TsMs != req.TsMs {
		t.Errorf("ts_ms = %d, want %d", row.TsMs, req.TsMs)
	}
	if row.BestBid == nil || *row.BestBid != 105 {
		t.Errorf("best_bid = %v, want 105", row.BestBid)
	}
	if row.BestAsk == nil || *row.BestAsk != 108 {
		t.Errorf("best_ask = %v, want 108", row.BestAsk)
	}
	if row.Spread == nil || *row.Spread != 3 {
		t.Errorf("spread = %v, want 3", row.Spread)
	}
	if res.Pair != "btcidr" || res.To != now.UnixMilli() {
		t.Errorf("resolved window wrong: %+v", res)
	}
}

// go test -v --run TestQueryOrdering
func TestQueryOrdering(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	svc := newTestService(NewMemoryStore(), base)
	ctx := context.Background()

	for _, off := range []int64{100, 300, 200} {
		req := IngestRequest{Pair: "btcidr", TsMs: base.UnixMilli() + off}
		if err := svc.Ingest(ctx, req); err != nil {
			t.Fatalf("ingest failed: %v", err)
		}
	}

	res, err := svc.Query(ctx, QueryRequest{
		Pair: "btcidr",
		ToMs: base.UnixMilli() + 1000,
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	want := []int64{300, 200, 100}
	if len(res.Rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(res.Rows), len(want))
	}
	for i, off := range want {
		if got := res.Rows[i].TsMs - base.UnixMilli(); got != off {
			t.Errorf("row %d offset = %d, want %d", i, got, off)
		}
	}
}

// go test -v --run TestRetentionPurgesOnlyThatPair
func TestRetentionPurgesOnlyThatPair(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	store := NewMemoryStore()
	svc := newTestService(store, now)
	ctx := context.Background()

	stale := now.UnixMilli() - 8*24*60*60*1000 // older than the 7d window
	fresh := now.UnixMilli() - 1000

	// A stale row for another pair must survive btcidr's writes.
	if err := store.InsertWithRetention(ctx, Snapshot{Pair: "ethidr", TsMs: stale}, 0); err != nil {
		t.Fatalf("seed ethidr failed: %v", err)
	}
	if err := store.InsertWithRetention(ctx, Snapshot{Pair: "btcidr", TsMs: stale}, 0); err != nil {
		t.Fatalf("seed btcidr failed: %v", err)
	}

	// The next write to btcidr sweeps btcidr's stale row.
	if err := svc.Ingest(ctx, IngestRequest{Pair: "btcidr", TsMs: fresh}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	res, err := svc.Query(ctx, QueryRequest{Pair: "btcidr", FromMs: 1, ToMs: now.UnixMilli()})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if res.Count != 1 || res.Rows[0].TsMs != fresh {
		t.Fatalf("expected only the fresh btcidr row, got %+v", res.Rows)
	}

	other, err := svc.Query(ctx, QueryRequest{Pair: "ethidr", FromMs: 1, ToMs: now.UnixMilli()})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if other.Count != 1 {
		t.Fatalf("ethidr row was purged by btcidr's write")
	}
}

// go test -v --run TestQueryLimitClamped
func TestQueryLimitClamped(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	ctx := context.Background()

	// The clamp happens before the store sees the limit; verify through a
	// store that records it.
	rec := &recordingStore{}
	svc := newTestService(rec, now)
	if _, err := svc.Query(ctx, QueryRequest{Pair: "btcidr", Limit: 100000}); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if rec.lastLimit != 5000 {
		t.Errorf("store saw limit %d, want 5000", rec.lastLimit)
	}

	if _, err := svc.Query(ctx, QueryRequest{Pair: "btcidr"}); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if rec.lastLimit != 1000 {
		t.Errorf("default limit = %d, want 1000", rec.lastLimit)
	}
}

// go test -v --run TestQueryMissingPair
func TestQueryMissingPair(t *testing.T) {
	rec := &recordingStore{}
	svc := newTestService(rec, time.UnixMilli(1_700_000_000_000))

	_, err := svc.Query(context.Background(), QueryRequest{Pair: "  "})
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("err = %v, want ErrMissingParameter", err)
	}
	if rec.scans != 0 {
		t.Error("store was reached despite missing pair")
	}
}

// go test -v --run TestIngestStoreFailureAborts
func TestIngestStoreFailureAborts(t *testing.T) {
	wantErr := errors.New("connection refused")
	svc := newTestService(&failingStore{err: wantErr}, time.UnixMilli(1_700_000_000_000))

	err := svc.Ingest(context.Background(), IngestRequest{Pair: "btcidr", TsMs: 1000})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
}

// go test -v --run TestQueryDegradesPoisonRowOnly
func TestQueryDegradesPoisonRowOnly(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	svc := newTestService(NewMemoryStore(), now)
	ctx := context.Background()

	good := IngestRequest{
		Pair: "btcidr",
		TsMs: now.UnixMilli() - 2000,
		Buy:  []Level{level("100", "1")},
		Sell: []Level{level("110", "1")},
	}
	poison := IngestRequest{
		Pair: "btcidr",
		TsMs: now.UnixMilli() - 1000,
		Buy:  []Level{level(`"abc"`, "1")},
		Sell: []Level{level("110", "1")},
	}
	for _, req := range []IngestRequest{good, poison} {
		if err := svc.Ingest(ctx, req); err != nil {
			t.Fatalf("ingest failed: %v", err)
		}
	}

	res, err := svc.Query(ctx, QueryRequest{Pair: "btcidr"})
	if err != nil {
		t.Fatalf("query failed despite poison row: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("count = %d, want 2", res.Count)
	}

	// Newest first: the poison row leads, fully absent.
	if res.Rows[0].BestBid != nil || res.Rows[0].BestAsk != nil || res.Rows[0].Spread != nil {
		t.Errorf("poison row should have an absent summary: %+v", res.Rows[0])
	}
	if res.Rows[1].BestBid == nil || *res.Rows[1].BestBid != 100 {
		t.Errorf("good row summary lost: %+v", res.Rows[1])
	}
}

// go test -v --run TestDuplicateTimestampsRetained
func TestDuplicateTimestampsRetained(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	svc := newTestService(NewMemoryStore(), now)
	ctx := context.Background()

	ts := now.UnixMilli() - 500
	for i := 0; i < 2; i++ {
		if err := svc.Ingest(ctx, IngestRequest{Pair: "btcidr", TsMs: ts}); err != nil {
			t.Fatalf("ingest %d failed: %v", i, err)
		}
	}

	res, err := svc.Query(ctx, QueryRequest{Pair: "btcidr"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if res.Count != 2 {
		t.Errorf("count = %d, want 2 (duplicates are kept, not merged)", res.Count)
	}
}

type recordingStore struct {
	scans     int
	lastLimit int
}

func (r *recordingStore) InsertWithRetention(ctx context.Context, snap Snapshot, cutoffMs int64) error {
	return nil
}

func (r *recordingStore) Scan(ctx context.Context, pair string, fromMs, toMs int64, limit int) ([]Row, error) {
	r.scans++
	r.lastLimit = limit
	return nil, nil
}

type failingStore struct {
	err error
}

func (f *failingStore) InsertWithRetention(ctx context.Context, snap Snapshot, cutoffMs int64) error {
	return f.err
}

func (f *failingStore) Scan(ctx context.Context, pair string, fromMs, toMs int64, limit int) ([]Row, error) {
	return nil, f.err
}
