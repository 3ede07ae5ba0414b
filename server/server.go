// Package server exposes the persona generator over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/llm"
	"github.com/teilomillet/georgianchat/persona"
	"github.com/teilomillet/georgianchat/utils"
)

const (
	HealthStatusHealthy = "healthy"
	shutdownTimeout     = 30 * time.Second
)

// HealthResponse is the body of GET /health_check.
type HealthResponse struct {
	Status   string `json:"status"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Status   string     `json:"status"`
	Device   string     `json:"device,omitempty"`
	LoadedAt *time.Time `json:"loadedAt,omitempty"`
}

// Server wraps a Generator as the generate_response and health_check functions.
type Server struct {
	echo      *echo.Echo
	generator *llm.Generator
	provider  string
	timeout   time.Duration
	logger    utils.Logger
	schemas   map[string]*jsonschema.Schema
}

type requestValidator struct{}

func (requestValidator) Validate(i any) error {
	return config.Validate(i)
}

const maxBodySize = "1M"

// New builds the HTTP surface. The per-call timeout comes from the
// generate_response entry of the manifest.
func New(cfg *config.Config, manifest *config.Manifest, generator *llm.Generator) *Server {
	if manifest == nil {
		manifest = config.DefaultManifest()
	}
	s := &Server{
		echo:      echo.New(),
		generator: generator,
		provider:  generator.Loader().Backend().Name(),
		timeout:   manifest.Generate.Timeout,
		logger:    cfg.GetLogger(),
		schemas:   buildSchemas(),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Validator = requestValidator{}
	e.Use(middleware.Recover(), s.requestLogger(), middleware.CORS(), middleware.BodyLimit(maxBodySize))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.POST("/generate_response", s.generateResponse)
	s.echo.GET("/health_check", s.healthCheck)
	s.echo.GET("/ready", s.ready)
	s.echo.GET("/characters", s.characters)
	s.echo.GET("/schema", s.schema)
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Listening", "addr", addr, "provider", s.provider)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) generateResponse(c echo.Context) error {
	req := new(llm.GenerateRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.generator.Generate(ctx, *req)
	if err != nil {
		llm.HandleError(err, false, s.logger)
		return echo.NewHTTPError(statusFor(err), err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, res)
}

// statusFor maps a generation failure to its HTTP status.
func statusFor(err error) int {
	switch llm.ErrorTypeOf(err) {
	case llm.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case llm.ErrorTypeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Health is the fixed liveness payload. It never consults the model.
func Health(provider string) HealthResponse {
	return HealthResponse{
		Status:   HealthStatusHealthy,
		Model:    config.ModelLabel,
		Provider: provider,
	}
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, Health(s.provider))
}

func (s *Server) ready(c echo.Context) error {
	state := s.generator.Loader().Current()
	if state == nil {
		return c.JSON(http.StatusServiceUnavailable, ReadyResponse{Status: "loading"})
	}
	return c.JSON(http.StatusOK, ReadyResponse{
		Status:   "ready",
		Device:   string(state.Device),
		LoadedAt: &state.LoadedAt,
	})
}

func (s *Server) characters(c echo.Context) error {
	return c.JSON(http.StatusOK, persona.Registry())
}

func (s *Server) schema(c echo.Context) error {
	return c.JSON(http.StatusOK, s.schemas)
}

func buildSchemas() map[string]*jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true}
	return map[string]*jsonschema.Schema{
		"generate_response.request":  r.Reflect(&llm.GenerateRequest{}),
		"generate_response.response": r.Reflect(&llm.GenerationResult{}),
		"health_check.response":      r.Reflect(&HealthResponse{}),
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				s.logger.Warn("Request failed", append(fields, "error", v.Error)...)
				return nil
			}
			s.logger.Debug("Request", fields...)
			return nil
		},
	})
}
