// Package api exposes simulations and console data over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/knowlearn/kldash/internal/assistant"
	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/services/dashboard"
	"github.com/knowlearn/kldash/internal/services/planning"
	"github.com/knowlearn/kldash/internal/simulation"
)

// Planner runs simulations.
type Planner interface {
	Run(ctx context.Context, in simulation.Input) (planning.Run, error)
	History() []planning.Run
	Export(run planning.Run) simulation.Export
	Defaults() simulation.Input
}

// PeopleSearcher searches the talent pool.
type PeopleSearcher interface {
	Search(ctx context.Context, filter models.PersonFilter, page models.Pagination) (*models.PersonList, error)
}

// PartnerSearcher searches vendors.
type PartnerSearcher interface {
	Search(ctx context.Context, filter models.PartnerFilter, page models.Pagination) (*models.PartnerList, error)
}

// Overviewer computes the dashboard snapshot.
type Overviewer interface {
	Overview(ctx context.Context) (*dashboard.Overview, error)
}

// Answerer answers assistant questions.
type Answerer interface {
	Answer(question string) assistant.Response
}

// HealthChecker verifies the backing store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the services the API serves from.
type Deps struct {
	Planner   Planner
	People    PeopleSearcher
	Partners  PartnerSearcher
	Dashboard Overviewer
	Assistant Answerer
	Health    HealthChecker

	// RequestTimeout bounds each request's service calls. Zero means 5s.
	RequestTimeout time.Duration
}

// Server serves the HTTP API.
type Server struct {
	deps   Deps
	routes map[string]route
}

type route struct {
	method  string
	handler fasthttp.RequestHandler
}

// NewServer creates an API server.
func NewServer(deps Deps) *Server {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 5 * time.Second
	}

	s := &Server{deps: deps}
	s.routes = map[string]route{
		"/healthz":            {fasthttp.MethodGet, s.handleHealth},
		"/api/v1/simulations": {fasthttp.MethodPost, s.handleSimulate},
		"/api/v1/history":     {fasthttp.MethodGet, s.handleHistory},
		"/api/v1/people":      {fasthttp.MethodGet, s.handlePeople},
		"/api/v1/partners":    {fasthttp.MethodGet, s.handlePartners},
		"/api/v1/dashboard":   {fasthttp.MethodGet, s.handleDashboard},
		"/api/v1/assistant":   {fasthttp.MethodPost, s.handleAssistant},
	}
	return s
}

// Handler returns the request router.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		path := string(ctx.Path())

		r, ok := s.routes[path]
		switch {
		case !ok:
			writeError(ctx, fasthttp.StatusNotFound, "not_found", "no route for "+path)
		case string(ctx.Method()) != r.method:
			ctx.Response.Header.Set("Allow", r.method)
			writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed", "use "+r.method)
		default:
			r.handler(ctx)
		}

		slog.Debug("api request",
			"method", string(ctx.Method()),
			"path", path,
			"status", ctx.Response.StatusCode(),
			"duration", time.Since(start),
		)
	}
}

// Config holds listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, cfg Config) error {
	ln, err := net.Listen("tcp4", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Addr, err)
	}
	return s.Serve(ctx, ln, cfg)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener, cfg Config) error {
	srv := &fasthttp.Server{
		Handler:      s.Handler(),
		Name:         "kldash",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.Info("api server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return <-errCh
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding response", "path", string(ctx.Path()), "error", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"error":"internal error","code":"encoding"}`)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, msg string) {
	writeJSON(ctx, status, ErrorResponse{Error: msg, Code: code})
}

// writeServiceError maps a service error to a response.
func writeServiceError(ctx *fasthttp.RequestCtx, err error) {
	var inputErr *simulation.InputError
	switch {
	case errors.As(err, &inputErr):
		writeJSON(ctx, fasthttp.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "invalid_input",
			Field: inputErr.Field,
		})
	case errors.Is(err, simulation.ErrUnknownStrategy):
		writeError(ctx, fasthttp.StatusBadRequest, "unknown_strategy", err.Error())
	case errors.Is(err, simulation.ErrInvalidInput):
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(ctx, fasthttp.StatusServiceUnavailable, "timeout", err.Error())
	default:
		slog.Error("api request failed", "path", string(ctx.Path()), "error", err)
		writeError(ctx, fasthttp.StatusInternalServerError, "internal", "internal error")
	}
}

func (s *Server) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.deps.RequestTimeout)
}
