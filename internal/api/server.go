package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/pipeline"
	"github.com/IshaanNene/dealcard/internal/platform"
	"github.com/IshaanNene/dealcard/internal/types"
)

// Processor is the part of the pipeline the API drives.
type Processor interface {
	ProcessURL(ctx context.Context, url string, opts pipeline.Options) types.ProcessingResult
	ProcessMany(ctx context.Context, urls []string, opts pipeline.Options) types.BulkProcessingResult
	Status(ctx context.Context) (types.QueueStatus, error)
	ClearStatus(ctx context.Context) error
}

// Resolver unwraps shortened links and lists the shortener hosts it knows.
type Resolver interface {
	pipeline.Resolver
	Shorteners() []string
}

// Deps are the components behind the routes. Metrics and MCP are optional
// handlers mounted when non-nil.
type Deps struct {
	Processor  Processor
	Resolver   Resolver
	Registry   *platform.Registry
	Scraper    pipeline.Scraper
	Converter  pipeline.Converter
	Categories []string

	Metrics     http.Handler
	MetricsPath string
	MCP         http.Handler
	MCPPath     string
}

// Server exposes the card pipeline over HTTP.
type Server struct {
	router  *chi.Mux
	deps    Deps
	cfg     config.ServerConfig
	maxBulk int
	srv     *http.Server
	logger  *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg config.ServerConfig, bulk config.BulkConfig, deps Deps, logger *slog.Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	s := &Server{
		router:  chi.NewRouter(),
		deps:    deps,
		cfg:     cfg,
		maxBulk: bulk.MaxURLs,
		logger:  logger.With("component", "api_server"),
	}

	s.registerRoutes()
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	s.logger.Info("API server starting", "addr", s.srv.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("API server shutting down")
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.limitBody)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/process-url", s.handleProcessURL)
		r.Post("/process-bulk-urls", s.handleProcessBulk)
		r.Post("/resolve-url", s.handleResolve)
		r.Post("/detect-platform", s.handleDetect)
		r.Post("/scrape-product", s.handleScrape)
		r.Post("/convert-affiliate", s.handleConvert)

		r.Get("/processing-status", s.handleStatus)
		r.Get("/supported-platforms", s.handlePlatforms)

		r.With(s.requireAdmin).Post("/admin/clear-queue", s.handleClearQueue)
	})

	if s.deps.Metrics != nil {
		r.Handle(pathOr(s.deps.MetricsPath, "/metrics"), s.deps.Metrics)
	}
	if s.deps.MCP != nil {
		r.Handle(pathOr(s.deps.MCPPath, "/mcp"), s.deps.MCP)
	}
}

func pathOr(p, def string) string {
	if p == "" {
		return def
	}
	return p
}

// --- Middleware ---

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			s.jsonError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorized reports whether r carries the admin key. Without a configured
// key every request is allowed.
func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.AdminKey == "" {
		return true
	}
	key := r.Header.Get("X-Admin-Key")
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.AdminKey)) == 1
}

// --- Handlers ---

type urlRequest struct {
	URL            string `json:"url"`
	TargetPage     string `json:"targetPage"`
	SaveToDatabase bool   `json:"saveToDatabase"`
}

type bulkRequest struct {
	URLs           []string `json:"urls"`
	TargetPage     string   `json:"targetPage"`
	SaveToDatabase bool     `json:"saveToDatabase"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleProcessURL(w http.ResponseWriter, r *http.Request) {
	var body urlRequest
	if !s.decode(w, r, &body) {
		return
	}
	body.URL = strings.TrimSpace(body.URL)
	if body.URL == "" {
		s.jsonError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if body.SaveToDatabase && !s.authorized(r) {
		s.jsonError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result := s.deps.Processor.ProcessURL(r.Context(), body.URL, pipeline.Options{
		TargetPage: body.TargetPage,
		Save:       body.SaveToDatabase,
	})
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleProcessBulk(w http.ResponseWriter, r *http.Request) {
	var body bulkRequest
	if !s.decode(w, r, &body) {
		return
	}
	urls := make([]string, 0, len(body.URLs))
	for _, u := range body.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		s.jsonError(w, http.StatusBadRequest, "URLs array is required")
		return
	}
	if s.maxBulk > 0 && len(urls) > s.maxBulk {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("Maximum %d URLs allowed per request", s.maxBulk))
		return
	}
	if body.SaveToDatabase && !s.authorized(r) {
		s.jsonError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result := s.deps.Processor.ProcessMany(r.Context(), urls, pipeline.Options{
		TargetPage: body.TargetPage,
		Save:       body.SaveToDatabase,
	})
	s.jsonResponse(w, http.StatusOK, result)
}

// resolveBody decodes a {url} body and resolves it.
func (s *Server) resolveBody(w http.ResponseWriter, r *http.Request) (types.ResolvedURL, types.PlatformInfo, bool) {
	var body urlRequest
	if !s.decode(w, r, &body) {
		return types.ResolvedURL{}, types.PlatformInfo{}, false
	}
	body.URL = strings.TrimSpace(body.URL)
	if body.URL == "" {
		s.jsonError(w, http.StatusBadRequest, "URL is required")
		return types.ResolvedURL{}, types.PlatformInfo{}, false
	}
	resolved := s.deps.Resolver.Resolve(r.Context(), body.URL)
	return resolved, s.deps.Registry.Detect(resolved), true
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	resolved, info, ok := s.resolveBody(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"resolved":     resolved,
		"platformInfo": info,
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var body urlRequest
	if !s.decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		s.jsonError(w, http.StatusBadRequest, "URL is required")
		return
	}
	u := strings.TrimSpace(body.URL)
	s.jsonResponse(w, http.StatusOK, s.deps.Registry.Detect(types.ResolvedURL{OriginalURL: u, FinalURL: u}))
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	resolved, info, ok := s.resolveBody(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"resolved":     resolved,
		"platformInfo": info,
		"scraped":      s.deps.Scraper.ScrapeWith(r.Context(), resolved, info),
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	resolved, info, ok := s.resolveBody(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"resolved":      resolved,
		"platformInfo":  info,
		"affiliateLink": s.deps.Converter.Convert(resolved, info),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Processor.Status(r.Context())
	if err != nil {
		s.logger.Error("status snapshot failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, "status unavailable")
		return
	}
	s.jsonResponse(w, http.StatusOK, st)
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"platforms":  s.deps.Registry.List(),
		"shorteners": s.deps.Resolver.Shorteners(),
		"categories": s.deps.Categories,
	})
}

func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Processor.ClearStatus(r.Context()); err != nil {
		s.logger.Error("clear status failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, "failed to clear processing queue")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Processing queue cleared"})
}

// --- Helpers ---

// decode reads a JSON body into v, writing a 400 or 413 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.jsonError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func (s *Server) jsonError(w http.ResponseWriter, status int, msg string) {
	s.jsonResponse(w, status, map[string]string{"error": msg})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
