// Package server exposes the planner over HTTP.
//
// Information Hiding:
// - Routing and middleware stack hidden behind Handler()
// - Session lookup and user resolution internal to handlers
// - Graceful shutdown tied to the caller's context
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/richinex/tripsense/booking"
	"github.com/richinex/tripsense/planner"
	"github.com/richinex/tripsense/session"
	"github.com/richinex/tripsense/storage"
	"github.com/richinex/tripsense/tools"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP server for the trip planner API.
type Server struct {
	planner  *planner.Planner
	sessions *session.Manager
	store    storage.TripStore
	registry *tools.Registry
	finder   *booking.Finder
	logger   *slog.Logger
	router   chi.Router
}

// New creates a new Server. A nil finder serves demo booking results.
func New(p *planner.Planner, sessions *session.Manager, store storage.TripStore, registry *tools.Registry, finder *booking.Finder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if finder == nil {
		finder = booking.NewFinder(nil, "", logger)
	}
	s := &Server{
		planner:  p,
		sessions: sessions,
		store:    store,
		registry: registry,
		finder:   finder,
		logger:   logger,
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)

		// Sessions
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)

		// Planning
		r.Post("/sessions/{id}/plan", s.handlePlan)
		r.Post("/sessions/{id}/chat", s.handleChat)
		r.Post("/sessions/{id}/reset", s.handleReset)
		r.Get("/sessions/{id}/messages", s.handleGetMessages)
		r.Get("/sessions/{id}/metrics", s.handleGetMetrics)

		// Saved trips
		r.Get("/trips", s.handleListTrips)
		r.Get("/trips/{id}", s.handleGetTrip)
		r.Delete("/trips/{id}", s.handleDeleteTrip)

		// Bookings for a saved trip
		r.Get("/trips/{id}/flights", s.handleTripFlights)
		r.Get("/trips/{id}/hotels", s.handleTripHotels)
		r.Get("/trips/{id}/events", s.handleTripEvents)
		r.Get("/trips/{id}/estimate", s.handleTripEstimate)

		r.Get("/tools", s.handleListTools)
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "demo_mode", s.planner.DemoMode())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
