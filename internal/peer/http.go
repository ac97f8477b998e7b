package peer

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iskng/imessage-exporter/internal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServer accepts batches from the HTTP sink
type HTTPServer struct {
	backend *Backend
	engine  *gin.Engine
}

// NewHTTPServer builds the routes. gatherer backs /metrics.
func NewHTTPServer(backend *Backend, gatherer prometheus.Gatherer) *HTTPServer {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &HTTPServer{backend: backend, engine: engine}
	engine.POST("/insert", s.insert)
	engine.POST("/flush", s.flush)
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return s
}

// Handler returns the HTTP handler
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// POST /insert with a JSON array of records
func (s *HTTPServer) insert(c *gin.Context) {
	var records []*internal.TransportRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.backend.Insert(c.Request.Context(), TransportHTTP, records); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": len(records)})
}

// POST /flush, answered with the graph stats
func (s *HTTPServer) flush(c *gin.Context) {
	graph, err := s.backend.Flush(c.Request.Context(), TransportHTTP)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, graph)
}

// ListenAndServe serves on addr until ctx is cancelled. TLS is used when both
// certFile and keyFile are set.
func (s *HTTPServer) ListenAndServe(ctx context.Context, addr, certFile, keyFile string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if certFile != "" && keyFile != "" {
			internal.LogInfo("Listening on https://%s", addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			internal.LogInfo("Listening on http://%s", addr)
			err = srv.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
