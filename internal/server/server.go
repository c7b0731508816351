package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sysmonctl/controlplane/internal/config"
)

// RegisterFunc wires application routes onto the router group the
// Server hands it; kept as a callback so Server owns nothing about
// handlers/services beyond the config needed to build the gin.Engine.
type RegisterFunc func(router *gin.Engine)

// Server wraps an http.Server around a gin.Engine, matching the
// teacher's dev/prod mode split (no TLS generation here — out of
// scope, spec §1 — certificates if any are supplied externally).
type Server struct {
	cfg    config.Server
	http   *http.Server
	engine *gin.Engine
}

// New builds a Server and lets register attach every route before the
// middleware stack closes over the engine.
func New(cfg config.Server, register RegisterFunc) *Server {
	if cfg.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	logger := zap.L().Named("http")
	engine.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	engine.Use(ginzap.RecoveryWithZap(logger, true))

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "Healthy")
	})

	register(engine)

	return &Server{
		cfg:    cfg,
		engine: engine,
		http: &http.Server{
			Addr:    httpAddr(cfg.HTTPPort),
			Handler: engine,
		},
	}
}

func httpAddr(port int) string {
	if port == 0 {
		port = 8443
	}
	return ":" + strconv.Itoa(port)
}

// Start blocks serving HTTP until the listener errors or Stop closes it.
func (s *Server) Start() error {
	zap.S().Named("server").Infow("starting http server", "addr", s.http.Addr, "mode", s.cfg.Mode)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop performs a graceful shutdown, waiting up to cfg.ShutdownTimeout
// for in-flight requests to complete.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
