package collector

import (
	"context"
	"fmt"
	"time"

	"obhistory/config"
	"obhistory/internal/history"
	"obhistory/pkg/indodax"

	"go.uber.org/zap"
)

// DepthFetcher is the slice of the upstream client the collector needs.
type DepthFetcher interface {
	GetDepth(ctx context.Context, pair string) (*indodax.Depth, error)
}

// Ingester accepts snapshots through the validated write path.
type Ingester interface {
	Ingest(ctx context.Context, req history.IngestRequest) error
}

// Collector periodically captures order-book snapshots for a configured
// set of pairs and feeds them through the same write path as the HTTP
// ingest endpoint, retention sweep included.
type Collector struct {
	cfg      config.CollectorConfig
	ingester Ingester
	fetcher  DepthFetcher
	log      *zap.Logger

	now func() time.Time // overridable in tests
}

func New(cfg config.CollectorConfig, ingester Ingester, fetcher DepthFetcher, log *zap.Logger) *Collector {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Collector{
		cfg:      cfg,
		ingester: ingester,
		fetcher:  fetcher,
		log:      log,
		now:      time.Now,
	}
}

// Run captures once immediately, then on every tick until the context is
// cancelled. A failed pair is logged and skipped; the rest of the sweep
// continues.
func (c *Collector) Run(ctx context.Context) {
	if len(c.cfg.Pairs) == 0 {
		c.log.Warn("collector enabled but no pairs configured")
		return
	}

	c.log.Info("collector started",
		zap.Strings("pairs", c.cfg.Pairs),
		zap.Duration("interval", c.cfg.Interval),
	)

	c.CaptureAll(ctx)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("collector stopped")
			return
		case <-ticker.C:
			c.CaptureAll(ctx)
		}
	}
}

// CaptureAll snapshots every configured pair once.
func (c *Collector) CaptureAll(ctx context.Context) {
	for _, pair := range c.cfg.Pairs {
		if err := c.capture(ctx, pair); err != nil {
			c.log.Warn("snapshot capture failed", zap.String("pair", pair), zap.Error(err))
			continue
		}
		c.log.Debug("snapshot captured", zap.String("pair", pair))
	}
}

func (c *Collector) capture(ctx context.Context, pair string) error {
	depth, err := c.fetcher.GetDepth(ctx, pair)
	if err != nil {
		return fmt.Errorf("fetch depth: %w", err)
	}

	return c.ingester.Ingest(ctx, history.IngestRequest{
		Pair: pair,
		TsMs: c.now().UnixMilli(),
		Buy:  depth.Buy,
		Sell: depth.Sell,
	})
}
