package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moyoez/tvremote-go/api/controllers"
	"github.com/moyoez/tvremote-go/api/middlewares"
	"github.com/moyoez/tvremote-go/tool"
	"github.com/moyoez/tvremote-go/types"
)

var DefaultListenAddress = "127.0.0.1:53318"

// Server exposes discovery and key sending over a local HTTP API.
type Server struct {
	listen string
	remote *controllers.RemoteController
	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

func NewServer(cfg types.AppConfig, lister controllers.CandidateLister, sender controllers.KeySender) *Server {
	listen := cfg.APIListen
	if listen == "" {
		listen = DefaultListenAddress
	}
	return &Server{
		listen: listen,
		remote: controllers.NewRemoteController(lister, sender, cfg),
	}
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(nil); err != nil {
		tool.DefaultLogger.Warnf("[Server] Failed to reset trusted proxies: %v", err)
	}
	engine.Use(gin.Recovery())

	remote := engine.Group("/api/remote/v1", middlewares.OnlyAllowLocal)
	{
		remote.GET("/candidates", s.remote.HandleCandidates)
		remote.POST("/keys/:action", s.remote.HandleSendKey)
	}
	engine.GET("/metrics", middlewares.OnlyAllowLocal, gin.WrapH(promhttp.Handler()))

	return engine
}

// Handler returns the routed engine, building it on first use.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		s.engine = s.setupRoutes()
	}
	return s.engine
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:    s.listen,
		Handler: handler,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on http://%s", s.listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
