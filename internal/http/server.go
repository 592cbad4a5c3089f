// Package http exposes the benefit tracker as a JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"perks/internal/catalog"
	"perks/internal/log"
	"perks/internal/services"
	"perks/internal/userstate"
)

// UsagePublisher emits usage-change events after successful mutations.
// Publishing is best-effort; failures never fail the local write.
type UsagePublisher interface {
	PublishUsageSync(ctx context.Context, cardID string, year int) error
}

type Server struct {
	catalog   *catalog.Catalog
	store     userstate.Store
	publisher UsagePublisher
	clock     services.Clock
	logger    *log.Logger
	httpSrv   *http.Server
}

func NewServer(port string, cat *catalog.Catalog, store userstate.Store, publisher UsagePublisher, logger *log.Logger) *Server {
	s := &Server{
		catalog:   cat,
		store:     store,
		publisher: publisher,
		clock:     services.SystemClock,
		logger:    logger.WithComponent("http"),
	}
	s.httpSrv = &http.Server{
		Addr:         ":" + port,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("GET /api/benefits", s.handleListBenefits)
	mux.HandleFunc("GET /api/benefits/{id}", s.handleGetBenefit)
	mux.HandleFunc("POST /api/benefits/{id}/enrolled", s.handleSetEnrolled)
	mux.HandleFunc("POST /api/benefits/{id}/ignored", s.handleSetIgnored)
	mux.HandleFunc("PATCH /api/benefits/{id}/state", s.handlePatchState)
	mux.HandleFunc("DELETE /api/benefits/{id}/state", s.handleClearState)
	mux.HandleFunc("POST /api/benefits/{id}/transactions", s.handleAddTransaction)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.InfoContext(r.Context(), "Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			log.FieldDuration, time.Since(start).Milliseconds())
	})
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
