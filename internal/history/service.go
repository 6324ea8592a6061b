package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"obhistory/config"

	"go.uber.org/zap"
)

// Service implements the snapshot write and read paths on top of a Store.
// Writes validate the payload, insert it and purge the pair's expired rows
// in one transaction. Reads resolve the query window, scan newest-first
// and attach a summary to each row.
type Service struct {
	store Store
	cfg   config.HistoryConfig
	log   *zap.Logger

	now func() time.Time // overridable in tests
}

func NewService(store Store, cfg config.HistoryConfig, log *zap.Logger) *Service {
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 1000
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 5000
	}

	return &Service{
		store: store,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// Ingest validates the payload and stores it. The retention purge for the
// snapshot's pair runs inside the same store transaction, so a write is
// never applied without its sweep.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) error {
	snap, err := req.Validate()
	if err != nil {
		return err
	}

	cutoff := s.now().UnixMilli() - s.cfg.Retention.Milliseconds()
	if err := s.store.InsertWithRetention(ctx, snap, cutoff); err != nil {
		return fmt.Errorf("store write for %s: %w", snap.Pair, err)
	}

	s.log.Debug("snapshot stored",
		zap.String("pair", snap.Pair),
		zap.Int64("ts_ms", snap.TsMs),
	)
	return nil
}

// QueryRequest carries the range query inputs. Zero values for FromMs,
// ToMs and Limit mean "not supplied" and take the documented defaults.
type QueryRequest struct {
	Pair   string
	FromMs int64
	ToMs   int64
	Limit  int
}

// QueryRow is one summarized snapshot in a query result.
type QueryRow struct {
	TsMs int64 `json:"ts_ms"`
	Summary
}

// QueryResult reports the resolved window alongside the rows.
type QueryResult struct {
	Pair  string     `json:"pair"`
	From  int64      `json:"from"`
	To    int64      `json:"to"`
	Count int        `json:"count"`
	Rows  []QueryRow `json:"rows"`
}

// Query fetches up to the resolved limit of snapshots for the pair within
// [from, to], newest first, and summarizes each one. It never mutates
// stored state.
func (s *Service) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	pair := strings.TrimSpace(req.Pair)
	if pair == "" {
		return nil, fmt.Errorf("%w: pair", ErrMissingParameter)
	}

	to := req.ToMs
	if to <= 0 {
		to = s.now().UnixMilli()
	}
	from := req.FromMs
	if from <= 0 {
		from = to - s.cfg.Retention.Milliseconds()
		if from < 0 {
			from = 0
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	rows, err := s.store.Scan(ctx, pair, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("store scan for %s: %w", pair, err)
	}

	out := make([]QueryRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, QueryRow{
			TsMs:    r.TsMs,
			Summary: SummarizeRaw(r.Buy, r.Sell),
		})
	}

	return &QueryResult{
		Pair:  pair,
		From:  from,
		To:    to,
		Count: len(out),
		Rows:  out,
	}, nil
}
