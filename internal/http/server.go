// Package http exposes the jipange REST API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/jipange/internal/assistant"
	"github.com/fyrsmithlabs/jipange/internal/integrations"
	"github.com/fyrsmithlabs/jipange/internal/logging"
	"github.com/fyrsmithlabs/jipange/internal/pipeline"
	"github.com/fyrsmithlabs/jipange/internal/task"
	"github.com/fyrsmithlabs/jipange/internal/telemetry"
)

// maxBodyBytes bounds request bodies; base64 voice notes are the largest.
const maxBodyBytes = "25M"

// Config holds HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
	Version     string
}

// Services are the domain services behind the routes. Assistant, Pipeline,
// Tasks and Integrations are required.
type Services struct {
	Assistant    *assistant.Service
	Pipeline     *pipeline.Service
	Tasks        *task.Service
	Integrations *integrations.Service

	// Gatherer backs GET /metrics; nil serves prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Meter records HTTP metrics; nil uses the global provider.
	Meter metric.Meter
	// Telemetry is reported by GET /health when set.
	Telemetry *telemetry.Telemetry
}

// Server provides the HTTP endpoints.
type Server struct {
	echo     *echo.Echo
	services Services
	logger   *zap.Logger
	config   *Config
}

// NewServer creates the server and registers every route.
func NewServer(services Services, logger *zap.Logger, cfg *Config) (*Server, error) {
	if services.Assistant == nil || services.Pipeline == nil || services.Tasks == nil || services.Integrations == nil {
		return nil, errors.New("assistant, pipeline, tasks and integrations services are required")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "0.0.0.0", Port: 8000}
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if services.Gatherer == nil {
		services.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(e, logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(maxBodyBytes))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: !allowsAll(cfg.CORSOrigins),
	}))
	e.Use(requestContext())
	e.Use(requestLogger(logger))
	e.Use(NewHTTPMetrics(services.Meter, logger).Middleware())

	s := &Server{
		echo:     e,
		services: services,
		logger:   logger,
		config:   cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.services.Gatherer, promhttp.HandlerOpts{})))

	ai := s.echo.Group("/api/ai")
	ai.POST("/ask", s.handleAsk)
	ai.POST("/voice-to-task", s.handleVoiceToTask)
	ai.POST("/extract", s.handleExtract)
	ai.POST("/validate", s.handleValidate)

	tasks := s.echo.Group("/api/tasks")
	tasks.POST("", s.handleCreateTask)
	tasks.POST("/", s.handleCreateTask)
	// GET takes a user id, PUT and DELETE a task id.
	tasks.GET("/:id", s.handleListTasks)
	tasks.PUT("/:id", s.handleUpdateTask)
	tasks.DELETE("/:id", s.handleDeleteTask)

	in := s.echo.Group("/api/integrations")
	in.POST("/google/webhook", s.handleGoogleWebhook)
	in.GET("/google/calendar/:id", s.handleGoogleCalendar)
	in.POST("/slack/events", s.handleSlackEvents)
}

// ServeHTTP makes the server usable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens until Shutdown. http.ErrServerClosed is not an error.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// requestContext copies the echo request id into the request context so
// services log it.
func requestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			if id != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
			}
			return next(c)
		}
	}
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
			}
			log := logging.For(c.Request().Context(), logger)
			switch {
			case status >= http.StatusInternalServerError:
				log.Error("http request", fields...)
			case status >= http.StatusBadRequest:
				log.Warn("http request", fields...)
			default:
				log.Info("http request", fields...)
			}
			return nil
		}
	}
}
