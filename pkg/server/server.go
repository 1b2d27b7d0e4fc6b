// Package server exposes the adapters over HTTP, standing in for the
// serverless host that would otherwise invoke them.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zen-systems/markerart/pkg/adapter"
	"golang.org/x/sync/errgroup"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Server routes inbound requests to adapter handlers.
type Server struct {
	engine   *gin.Engine
	envelope adapter.Envelope
	log      *slog.Logger
}

// New creates a server with one POST route per handler, mounted at
// /v1/<handler name>.
func New(log *slog.Logger, envelope adapter.Envelope, handlers ...adapter.Handler) *Server {
	if log == nil {
		log = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:   gin.New(),
		envelope: envelope,
		log:      log.With(slog.String("module", "server")),
	}

	s.engine.Use(gin.Recovery(), s.requestID(), s.accessLog())
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/v1")
	for _, h := range handlers {
		v1.POST("/"+h.Name(), s.handle(h))
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handle(h adapter.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.write(c, adapter.Failure(adapter.KindValidation, 0, fmt.Sprintf("Request body too large (limit %d bytes)", tooLarge.Limit)))
				return
			}
			s.write(c, adapter.Failure(adapter.KindParse, 0, "Error reading request body: "+err.Error()))
			return
		}
		s.write(c, h.Handle(c.Request.Context(), body))
	}
}

func (s *Server) write(c *gin.Context, resp adapter.Response) {
	contentType, data, err := resp.Render(s.envelope)
	if err != nil {
		s.log.Error("rendering response", slog.String("error", err.Error()))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(StatusCode(resp), contentType, data)
}

// StatusCode maps a response to the HTTP status sent with it.
func StatusCode(resp adapter.Response) int {
	if resp.Success {
		return http.StatusOK
	}
	switch resp.Kind {
	case adapter.KindValidation, adapter.KindParse:
		return http.StatusBadRequest
	case adapter.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			slog.String("request_id", c.GetString("request_id")),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
