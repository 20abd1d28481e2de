package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crosssection/pkg/buildinfo"
	"github.com/matzehuels/crosssection/pkg/cache"
	"github.com/matzehuels/crosssection/pkg/errors"
	cio "github.com/matzehuels/crosssection/pkg/io"
	"github.com/matzehuels/crosssection/pkg/observability"
	"github.com/matzehuels/crosssection/pkg/pipeline"
	"github.com/matzehuels/crosssection/pkg/render/sink"
)

const (
	defaultAddr         = ":8080"
	defaultMaxBodyBytes = 4 << 20
	shutdownTimeout     = 10 * time.Second
)

type serveOpts struct {
	addr        string
	redisURL    string
	redisPrefix string
	maxBody     int64
	cacheSize   int
}

// serveCommand creates the serve command, which exposes the pipeline over
// HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:      defaultAddr,
		maxBody:   defaultMaxBodyBytes,
		cacheSize: cache.DefaultMaxEntries,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render pipeline over HTTP",
		Long: `Serve the render pipeline over HTTP.

Endpoints:
  POST /render?format=svg   render a document, respond with the artifact
  POST /layout              compute a document's scene, respond with JSON
  GET  /healthz             liveness and version
  GET  /metrics             Prometheus metrics

Request bodies are JSON: {"document": <chart document>, "options": {...}}.
Options use the same names as the config file (width, height, donut,
style, zero_policy, colors, ...).

Renders are cached in memory, or in Redis with --redis so that several
instances share one cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyServeConfig(cmd, &opts)
			return c.runServe(cmd.Context(), ui{w: cmd.OutOrStdout()}, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "redis URL for a shared cache (e.g. redis://localhost:6379/0)")
	cmd.Flags().StringVar(&opts.redisPrefix, "redis-prefix", "", "prefix for redis keys")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", opts.maxBody, "maximum request body size in bytes")
	cmd.Flags().IntVar(&opts.cacheSize, "cache-size", opts.cacheSize, "entries kept in the in-memory cache")

	return cmd
}

func (c *CLI) applyServeConfig(cmd *cobra.Command, opts *serveOpts) {
	s := c.Config.Serve
	if s.Addr != "" && !cmd.Flags().Changed("addr") {
		opts.addr = s.Addr
	}
	if s.Redis != "" && !cmd.Flags().Changed("redis") {
		opts.redisURL = s.Redis
	}
	if s.RedisPrefix != "" && !cmd.Flags().Changed("redis-prefix") {
		opts.redisPrefix = s.RedisPrefix
	}
	if s.MaxBodyBytes > 0 && !cmd.Flags().Changed("max-body") {
		opts.maxBody = s.MaxBodyBytes
	}
}

func (c *CLI) runServe(ctx context.Context, out ui, opts serveOpts) error {
	store, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(store, cache.NewScopedKeyer(nil, buildinfo.CacheScope()), c.Logger)
	defer runner.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewPrometheus(reg)
	observability.SetPipelineHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)
	defer observability.Reset()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           newServer(runner, c.Logger, reg, opts.maxBody).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	out.success("Listening on %s", opts.addr)
	out.keyValue("version", buildinfo.Version)
	if c.noCache {
		out.warning("Caching disabled")
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	c.Logger.Info("server stopped")
	return nil
}

func (c *CLI) serveCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisURL == "" {
		return cache.NewMemoryCache(opts.cacheSize), nil
	}
	var ropts []cache.RedisOption
	if opts.redisPrefix != "" {
		ropts = append(ropts, cache.WithRedisPrefix(opts.redisPrefix))
	}
	rc, err := cache.DialRedis(ctx, opts.redisURL, ropts...)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	c.Logger.Info("using redis cache", "url", opts.redisURL)
	return rc, nil
}

// =============================================================================
// HTTP API
// =============================================================================

// server holds the dependencies of the HTTP handlers.
type server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	gatherer prometheus.Gatherer
	maxBody  int64
	validate *validator.Validate
}

// renderRequest is the body of POST /render and POST /layout.
type renderRequest struct {
	Document json.RawMessage  `json:"document" validate:"required"`
	Options  pipeline.Options `json:"options"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newServer(runner *pipeline.Runner, logger *log.Logger, gatherer prometheus.Gatherer, maxBody int64) *server {
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &server{
		runner:   runner,
		logger:   logger,
		gatherer: gatherer,
		maxBody:  maxBody,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Post("/render", s.handleRender)
	r.Post("/layout", s.handleLayout)
	return r
}

// instrument attaches a request logger and reports every request to the
// HTTP hooks.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := withLogger(r.Context(), s.logger.With("request_id", middleware.GetReqID(r.Context())))

		next.ServeHTTP(ww, r.WithContext(ctx))

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, dur)
		loggerFromContext(ctx).Debug("request", "method", r.Method, "route", route, "status", status, "duration", dur)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	opts := req.Options
	if f := r.URL.Query().Get("format"); f != "" {
		opts.Formats = []string{f}
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{pipeline.FormatSVG}
	}
	if len(opts.Formats) > 1 {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "one format per request (got %d)", len(opts.Formats)))
		return
	}
	opts.Logger = loggerFromContext(r.Context())

	doc, err := cio.ReadBytes(req.Document, cio.FormatJSON)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.runner.Execute(r.Context(), doc, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	format := opts.Formats[0]
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set("X-Document-Hash", result.DocumentHash)
	if result.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

func (s *server) handleLayout(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	opts := req.Options
	opts.Logger = loggerFromContext(r.Context())

	doc, err := cio.ReadBytes(req.Document, cio.FormatJSON)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	scene, err := s.runner.Layout(r.Context(), doc, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := sink.RenderJSON(scene, sink.WithJSONStyle(opts.StyleValue()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentTypes[pipeline.FormatJSON])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// decode reads and validates the request body. On failure it writes the
// error response and returns false.
func (s *server) decode(w http.ResponseWriter, r *http.Request) (renderRequest, bool) {
	var req renderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return req, false
	}
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request"))
		return req, false
	}
	return req, true
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := httpStatus(code)
	if status >= http.StatusInternalServerError {
		loggerFromContext(r.Context()).Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: errors.UserMessage(err)})
}

// httpStatus maps error codes to HTTP status codes.
func httpStatus(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidStyle,
		errors.ErrCodeInvalidVizType, errors.ErrCodeInvalidPolicy, errors.ErrCodeInvalidDocument,
		errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeAllZeros, errors.ErrCodeContainerTooSmall, errors.ErrCodeDegenerateSubtree:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
