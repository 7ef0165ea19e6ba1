// Package server is the HTTP surface: HTML pages behind a cookie session and a
// small JSON API that also accepts bearer tokens.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/config"
	"github.com/Wh1teCaat/fitness-companion/internal/logging"
	"github.com/Wh1teCaat/fitness-companion/internal/service"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

const shutdownTimeout = 5 * time.Second

// ModelStatus reports whether the classifier has been loaded, without loading it.
type ModelStatus interface {
	Loaded() bool
}

type Server struct {
	svc    *service.Service
	models ModelStatus
	store  *sessions.CookieStore
	pages  *pages
	logger logging.Logger
	router *mux.Router
}

func NewServer(svc *service.Service, models ModelStatus, sessionSecret string, logger logging.Logger) (*Server, error) {
	p, err := loadPages()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	s := &Server{
		svc:    svc,
		models: models,
		store:  newStore(sessionSecret),
		pages:  p,
		logger: logger,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() error {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to open static assets: %w", err)
	}

	r := mux.NewRouter()
	r.Use(s.logRequests, s.recoverPanic)

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.HandleFunc("/login", s.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", s.loginSubmit).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.logout).Methods(http.MethodGet)
	r.HandleFunc("/api/token", s.issueToken).Methods(http.MethodPost)
	r.HandleFunc("/api/token/refresh", s.refreshToken).Methods(http.MethodPost)

	pages := r.NewRoute().Subrouter()
	pages.Use(s.requirePageUser)
	pages.HandleFunc("/", s.index).Methods(http.MethodGet)
	pages.HandleFunc("/profile", s.profilePage).Methods(http.MethodGet)
	pages.HandleFunc("/profile", s.profileSubmit).Methods(http.MethodPost)
	pages.HandleFunc("/dashboard", s.dashboard).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(s.requireAPIUser)
	api.HandleFunc("/chat", s.chat).Methods(http.MethodPost)
	api.HandleFunc("/api/analytics", s.analytics).Methods(http.MethodGet)
	api.HandleFunc("/api/calendar", s.calendar).Methods(http.MethodGet)

	s.router = r
	return nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, cfg config.Server) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.logger.Info(ctx, "server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(context.Background(), "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
