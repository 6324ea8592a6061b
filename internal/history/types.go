package history

import "encoding/json"

// Level is a single price level of one order-book side as supplied by the
// caller: a JSON array whose first element is the price. Everything after
// the price (quantity, cumulative totals, ...) is carried through verbatim
// and never interpreted here.
type Level []json.RawMessage

// Snapshot is a validated point-in-time capture of both sides of a pair's
// order book, ready to be persisted.
type Snapshot struct {
	Pair string
	TsMs int64
	Buy  []Level
	Sell []Level
}

// Row is one stored snapshot as returned by a store scan. Buy and Sell
// hold the raw level arrays exactly as they were written.
type Row struct {
	TsMs int64
	Buy  json.RawMessage
	Sell json.RawMessage
}

// Summary holds the derived best prices for a single snapshot. A nil field
// means the value is absent: the side had no levels, or the snapshot's
// prices failed to parse.
type Summary struct {
	BestBid *float64 `json:"best_bid"`
	BestAsk *float64 `json:"best_ask"`
	Spread  *float64 `json:"spread"`
}
