// Package httpapi exposes the bridge over HTTP.
//
//	GET  /healthz
//	GET  /v1/methods                 registered operation names
//	GET  /v1/methods/{name}/schema   JSON Schema of one operation's arguments
//	POST /v1/methods/{name}          body: JSON object of arguments
//
// Every POST that reaches the dispatcher answers 200 with the Outcome as
// body; the outcome status carries success or failure.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/reglet-dev/ankibridge/application/schema"
	"github.com/reglet-dev/ankibridge/domain/entities"
	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
	"github.com/reglet-dev/ankibridge/domain/ports"
	"github.com/reglet-dev/ankibridge/hostfuncs"
)

// DefaultMaxRequestSize limits a request body (1MB).
const DefaultMaxRequestSize int64 = 1 << 20

type serverConfig struct {
	logger         *slog.Logger
	registry       *hostfuncs.Registry
	maxRequestSize int64
	callTimeout    time.Duration
}

// Option configures the HTTP handler.
type Option func(*serverConfig)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRegistry publishes the registry's operations on the listing and
// schema routes. Without it both routes are empty.
func WithRegistry(r *hostfuncs.Registry) Option {
	return func(c *serverConfig) {
		c.registry = r
	}
}

// WithMaxRequestSize limits request bodies.
func WithMaxRequestSize(n int64) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxRequestSize = n
		}
	}
}

// WithCallTimeout bounds how long a call may wait for its outcome, which
// matters for permission prompts. Zero waits for the client.
func WithCallTimeout(d time.Duration) Option {
	return func(c *serverConfig) {
		c.callTimeout = d
	}
}

type server struct {
	dispatcher ports.Dispatcher
	config     serverConfig
}

// NewHandler returns the HTTP handler for dispatcher.
func NewHandler(dispatcher ports.Dispatcher, opts ...Option) http.Handler {
	cfg := serverConfig{
		logger:         slog.Default(),
		maxRequestSize: DefaultMaxRequestSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &server{dispatcher: dispatcher, config: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1/methods", func(r chi.Router) {
		r.Get("/", s.listMethods)
		r.Get("/{name}/schema", s.methodSchema)
		r.Post("/{name}", s.callMethod)
	})

	return r
}

func (s *server) listMethods(w http.ResponseWriter, _ *http.Request) {
	names := []string{}
	if s.config.registry != nil {
		names = s.config.registry.Names()
	}
	writeJSON(w, http.StatusOK, map[string][]string{"methods": names})
}

func (s *server) methodSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var op hostfuncs.Operation
	ok := false
	if s.config.registry != nil {
		op, ok = s.config.registry.Lookup(name)
	}
	if !ok {
		writeOutcome(w, http.StatusNotFound, entities.Failure(
			domainerrors.ToErrorDetail(&domainerrors.NotImplementedError{Method: name})))
		return
	}
	writeJSON(w, http.StatusOK, schema.OperationSchema(op))
}

func (s *server) callMethod(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	args, err := s.decodeArgs(w, r)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeOutcome(w, status, entities.Failure(domainerrors.ToErrorDetail(
			&domainerrors.ContractViolationError{Method: name, Err: err})))
		return
	}

	ctx := r.Context()
	if s.config.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.callTimeout)
		defer cancel()
	}

	out, err := s.dispatcher.Call(ctx, name, args)
	if err != nil {
		writeOutcome(w, http.StatusGatewayTimeout, entities.Failure(domainerrors.ToErrorDetail(
			&domainerrors.HostCallFailedError{Method: name, Err: err})))
		return
	}
	writeOutcome(w, http.StatusOK, out)
}

func (s *server) decodeArgs(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body := http.MaxBytesReader(w, r.Body, s.config.maxRequestSize)
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return map[string]any{}, nil
	}

	args, err := hostfuncs.DecodeArgs(data)
	if err != nil {
		return nil, fmt.Errorf("request body must be a JSON object: %w", err)
	}
	return args, nil
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.config.logger.InfoContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func writeOutcome(w http.ResponseWriter, status int, out entities.Outcome) {
	writeJSON(w, status, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
