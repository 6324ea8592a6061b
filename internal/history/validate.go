package history

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingParameter marks a request that omits a required field.
	// Rejected before any store access.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidPayload marks a structurally present but semantically
	// invalid ingest payload. Rejected before any store access.
	ErrInvalidPayload = errors.New("invalid payload")
)

// IngestRequest is the raw ingest payload as received from a caller.
type IngestRequest struct {
	Pair string  `json:"pair"`
	TsMs int64   `json:"ts_ms"`
	Buy  []Level `json:"buy"`
	Sell []Level `json:"sell"`
}

// Validate checks the payload and returns a normalized Snapshot: the pair
// is trimmed and absent sides become empty. Level contents are passed
// through untouched; prices are only parsed at read time.
func (r IngestRequest) Validate() (Snapshot, error) {
	pair := strings.TrimSpace(r.Pair)
	if pair == "" || r.TsMs <= 0 {
		return Snapshot{}, fmt.Errorf("%w: require pair, ts_ms", ErrInvalidPayload)
	}

	buy := r.Buy
	if buy == nil {
		buy = []Level{}
	}
	sell := r.Sell
	if sell == nil {
		sell = []Level{}
	}

	return Snapshot{
		Pair: pair,
		TsMs: r.TsMs,
		Buy:  buy,
		Sell: sell,
	}, nil
}
