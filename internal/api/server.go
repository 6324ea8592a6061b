package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"obhistory/config"
	"obhistory/internal/history"
	"obhistory/pkg/indodax"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Upstream is the slice of the market-data API this server proxies.
type Upstream interface {
	GetDepth(ctx context.Context, pair string) (*indodax.Depth, error)
	GetPairs(ctx context.Context) (indodax.PairsResponse, error)
	GetServerTime(ctx context.Context) (*indodax.ServerTime, error)
}

// Server exposes the snapshot history endpoints and the upstream proxy
// endpoints over HTTP.
type Server struct {
	cfg      config.ServerConfig
	svc      *history.Service
	upstream Upstream
	health   func(ctx context.Context) bool
	log      *zap.Logger
	router   *gin.Engine
}

// NewServer wires the history service and upstream client into a gin
// router. health may be nil when no backing-store check is available.
func NewServer(cfg config.ServerConfig, svc *history.Service, upstream Upstream, health func(ctx context.Context) bool, log *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		svc:      svc,
		upstream: upstream,
		health:   health,
		log:      log,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Address,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.log.Info("http server listening", zap.String("address", s.cfg.Address))

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/history/save", s.handleHistorySave)
		api.GET("/history/list", s.handleHistoryList)
		api.GET("/orderbook", s.handleOrderbook)
		api.GET("/pairs", s.handlePairs)
		api.GET("/server_time", s.handleServerTime)
	}

	router.GET("/healthz", s.handleHealth)

	return router
}

// corsMiddleware allows cross-origin access to the API, so the frontend
// can be opened from any origin (including file://).
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if !s.health(ctx) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
