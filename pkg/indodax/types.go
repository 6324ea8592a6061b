package indodax

import (
	"encoding/json"

	"obhistory/internal/history"
)

// Depth is the order book for one pair as served by /api/depth/{pair}.
// Level elements keep Indodax's mixed encoding (numeric prices, string
// quantities) untouched.
type Depth struct {
	Buy  []history.Level `json:"buy"`
	Sell []history.Level `json:"sell"`
}

// ServerTime is the payload of /api/server_time.
type ServerTime struct {
	Timezone   string `json:"timezone"`
	ServerTime int64  `json:"server_time"`
}

// Pairs metadata is proxied verbatim, so it stays raw JSON.
type PairsResponse = json.RawMessage
