package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"obhistory/internal/history"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) handleHistorySave(c *gin.Context) {
	var req history.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}

	if err := s.svc.Ingest(c.Request.Context(), req); err != nil {
		if errors.Is(err, history.ErrInvalidPayload) || errors.Is(err, history.ErrMissingParameter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.log.Error("snapshot ingest failed", zap.String("pair", req.Pair), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleHistoryList(c *gin.Context) {
	req := history.QueryRequest{Pair: c.Query("pair")}

	var parseErr error
	req.FromMs = parseIntParam(c, "from", &parseErr)
	req.ToMs = parseIntParam(c, "to", &parseErr)
	limit := parseIntParam(c, "limit", &parseErr)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Error()})
		return
	}
	req.Limit = int(limit)

	res, err := s.svc.Query(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, history.ErrMissingParameter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing pair"})
			return
		}
		s.log.Error("history query failed", zap.String("pair", req.Pair), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

// parseIntParam reads an optional integer query parameter. The first
// malformed value wins and is reported through parseErr.
func parseIntParam(c *gin.Context, name string, parseErr *error) int64 {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil && *parseErr == nil {
		*parseErr = errors.New("invalid " + name + ": not an integer")
	}
	return v
}

func (s *Server) handleOrderbook(c *gin.Context) {
	pair := c.Query("pair")
	if pair == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing pair"})
		return
	}

	depth, err := s.upstream.GetDepth(c.Request.Context(), pair)
	if err != nil {
		s.log.Warn("upstream depth fetch failed", zap.String("pair", pair), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	// Present the book in display order: best bid first, best ask first.
	buy := sortLevels(depth.Buy, true)
	sell := sortLevels(depth.Sell, false)

	c.Header("Cache-Control", "s-maxage=3, stale-while-revalidate=30")
	c.JSON(http.StatusOK, gin.H{
		"pair": pair,
		"buy":  buy,
		"sell": sell,
	})
}

// sortLevels orders levels by price. If any price fails to parse the
// input comes back unchanged; upstream order is better than a partial
// sort.
func sortLevels(levels []history.Level, desc bool) []history.Level {
	if len(levels) == 0 {
		return []history.Level{}
	}

	prices := make([]float64, len(levels))
	for i, lv := range levels {
		if len(lv) == 0 {
			return levels
		}
		p, err := history.ParsePrice(lv[0])
		if err != nil {
			return levels
		}
		prices[i] = p
	}

	sorted := make([]history.Level, len(levels))
	idx := make([]int, len(levels))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if desc {
			return prices[idx[a]] > prices[idx[b]]
		}
		return prices[idx[a]] < prices[idx[b]]
	})
	for i, j := range idx {
		sorted[i] = levels[j]
	}
	return sorted
}

func (s *Server) handlePairs(c *gin.Context) {
	raw, err := s.upstream.GetPairs(c.Request.Context())
	if err != nil {
		s.log.Warn("upstream pairs fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.Header("Cache-Control", "s-maxage=5, stale-while-revalidate=30")
	c.Data(http.StatusOK, "application/json", raw)
}

func (s *Server) handleServerTime(c *gin.Context) {
	st, err := s.upstream.GetServerTime(c.Request.Context())
	if err != nil {
		s.log.Warn("upstream server time fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, st)
}
