package history

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Summarize derives the best bid (highest buy price), best ask (lowest
// sell price) and spread from one snapshot's sides. It is a pure function
// of its input.
//
// If any level's price fails to parse, all three fields come back absent
// for this snapshot: one corrupt historical row degrades to "no summary"
// instead of breaking a multi-row query.
func Summarize(buy, sell []Level) Summary {
	var bestBid, bestAsk *float64

	for _, lv := range buy {
		if len(lv) == 0 {
			continue
		}
		p, err := ParsePrice(lv[0])
		if err != nil {
			return Summary{}
		}
		if bestBid == nil || p > *bestBid {
			v := p
			bestBid = &v
		}
	}

	for _, lv := range sell {
		if len(lv) == 0 {
			continue
		}
		p, err := ParsePrice(lv[0])
		if err != nil {
			return Summary{}
		}
		if bestAsk == nil || p < *bestAsk {
			v := p
			bestAsk = &v
		}
	}

	var spread *float64
	if bestBid != nil && bestAsk != nil {
		v := *bestAsk - *bestBid
		spread = &v
	}

	return Summary{BestBid: bestBid, BestAsk: bestAsk, Spread: spread}
}

// SummarizeRaw decodes the stored level arrays and summarizes them. A row
// whose JSON no longer decodes yields an absent summary, same as a price
// parse failure.
func SummarizeRaw(buy, sell json.RawMessage) Summary {
	buyLevels, err := decodeLevels(buy)
	if err != nil {
		return Summary{}
	}
	sellLevels, err := decodeLevels(sell)
	if err != nil {
		return Summary{}
	}
	return Summarize(buyLevels, sellLevels)
}

func decodeLevels(raw json.RawMessage) ([]Level, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var levels []Level
	if err := json.Unmarshal(raw, &levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// ParsePrice accepts a JSON number or a numeric string; upstream order
// books mix both forms.
func ParsePrice(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
