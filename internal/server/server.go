package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/anidb"
	"github.com/varoOP/anitrack/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

// ImageFetcher streams AniDB pictures by filename
type ImageFetcher interface {
	Fetch(ctx context.Context, filename string) (*anidb.Image, error)
}

// Server exposes the tracker as a JSON API
type Server struct {
	log     zerolog.Logger
	tracker tracker.Service
	images  ImageFetcher
}

func NewServer(log zerolog.Logger, tracker tracker.Service, images ImageFetcher) *Server {
	return &Server{
		log:     log.With().Str("module", "http").Logger(),
		tracker: tracker,
		images:  images,
	}
}

// Router sets up the API routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/anime", s.handleListAnime)
		r.Get("/search", s.handleSearch)
		r.Post("/add", s.handleAddAnime)
		r.Post("/update/{animeID}", s.handleUpdateProgress)
		r.Delete("/remove/{animeID}", s.handleRemoveAnime)
		r.Get("/image/*", s.handleImage)
	})

	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled, then shuts
// down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http server shutdown")
	}
	return nil
}
