// Package device serves a stand-in for the bed controller API so the panel can
// be exercised without hardware.
package device

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smartbedding/panel/internal/config"
	"github.com/smartbedding/panel/internal/config/environment"
)

// NewRouter builds the controller API around a simulator. Extra middleware
// runs ahead of every route.
func NewRouter(simulator *Simulator, allowedOrigins []string, middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)

	corsConfig := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}

	logrus.WithFields(logrus.Fields{
		"allowedOrigins": allowedOrigins,
	}).Debugln("CORS configuration")

	router.Use(cors.New(corsConfig))

	h := &handlers{simulator: simulator}

	router.GET("/health", h.getHealth)
	router.POST("/auth", h.postAuth)
	router.GET("/verify", h.getVerify)
	router.GET("/connectivity", h.requireToken(), h.getConnectivity)

	return router
}

// Server runs the simulated controller over HTTP
type Server struct {
	Config        *config.Config
	Simulator     *Simulator
	StartTime     time.Time
	TotalRequests int64
	server        *http.Server
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		Config: cfg,
		Simulator: NewSimulator(
			cfg.Server.Code,
			cfg.Server.Connectivity,
		),
		StartTime: time.Now().UTC(),
	}
}

// Start binds the listener and serves in the background
func (s *Server) Start() error {

	router := NewRouter(
		s.Simulator,
		s.Config.Server.AllowedOrigins,
		s.requestCounterMiddleware(),
	)

	addr := s.Config.GetServerAddress()

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.server = server

	errChan := make(chan error, 1)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait a moment to see if the server fails to start
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start server: %w", err)
	case <-time.After(100 * time.Millisecond):
		logrus.WithFields(logrus.Fields{
			"address": addr,
			"host":    environment.DetectHostname(),
		}).Infoln("Simulated device started")
		return nil
	}
}

func (s *Server) Stop() {
	if s.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warnln("Server shutdown")
	}

	logrus.WithFields(logrus.Fields{
		"requests": atomic.LoadInt64(&s.TotalRequests),
		"uptime":   time.Since(s.StartTime).Round(time.Second),
	}).Infoln("Simulated device stopped")
}

// requestCounterMiddleware increments the request counter
func (s *Server) requestCounterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		atomic.AddInt64(&s.TotalRequests, 1)
		c.Next()
	}
}
