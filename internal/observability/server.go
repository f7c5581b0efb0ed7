package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/swayctl/internal/logging"
)

// NewRouter returns the metrics router: /metrics and /health.
func NewRouter() *gin.Engine {
	RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logging.Logger()))
	r.Use(RequestMetricsMiddleware())

	started := time.Now()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(started).String(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// ServeMetrics serves NewRouter on addr until the returned server is shut
// down.
func ServeMetrics(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.Infof("observability.ServeMetrics listening addr=%q", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errf("observability.ServeMetrics addr=%q err=%v", addr, err)
		}
	}()
	return srv
}
