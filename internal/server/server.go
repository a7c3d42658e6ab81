// Package server exposes the render pipeline over HTTP.
//
// Routes:
//
//	POST /v1/render    screenshot in, PNG out
//	POST /v1/preview   same, downscaled by style.canvasSize percent
//	GET  /v1/patterns  pattern catalog
//	GET  /v1/formats   format catalog
//	GET  /v1/version   build information
//	GET  /healthz      liveness
//
// Render requests are either multipart forms with an "image" file part or
// JSON bodies of the form {"image_url" | "image_data", "options"}. Every
// response carries an X-Request-ID.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/backdrop/pkg/buildinfo"
	"github.com/matzehuels/backdrop/pkg/catalog"
	"github.com/matzehuels/backdrop/pkg/config"
	"github.com/matzehuels/backdrop/pkg/errors"
	"github.com/matzehuels/backdrop/pkg/pipeline"
)

// Server serves renders from a shared pipeline.Runner.
type Server struct {
	runner   *pipeline.Runner
	catalog  *catalog.Catalog
	defaults pipeline.Options
	cfg      config.ServerConfig
	logger   *log.Logger
	router   chi.Router
}

// New builds a server. defaults seed every request's options, and cfg's
// image limits are applied to runner's loader.
func New(runner *pipeline.Runner, cat *catalog.Catalog, defaults pipeline.Options, cfg config.ServerConfig, logger *log.Logger) *Server {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.Default().Server.MaxUploadBytes
	}
	if runner.Loader != nil {
		runner.Loader.Limits = cfg.ImageLimits()
	}
	s := &Server{
		runner:   runner,
		catalog:  cat,
		defaults: defaults,
		cfg:      cfg,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, buildinfo.Get())
		})
		r.Get("/patterns", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, s.catalog.Patterns())
		})
		r.Get("/formats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, s.catalog.Formats())
		})

		r.Group(func(r chi.Router) {
			if s.cfg.RenderTimeout > 0 {
				r.Use(middleware.Timeout(s.cfg.RenderTimeout))
			}
			r.Post("/render", s.handleRender(false))
			r.Post("/preview", s.handleRender(true))
		})
	})
	return r
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", RequestID(r.Context()), "err", err)
	}
	writeJSON(w, status, errorBody{
		Error:     errors.UserMessage(err),
		Code:      string(errors.GetCode(err)),
		RequestID: RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
