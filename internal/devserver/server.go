// Package devserver is a small REST server exposing generic CRUD over /tasks.
// It holds no board logic; it stands in for the local endpoint the client tries first.
package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"taskboard/internal/logging"
	"taskboard/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	// StringIDs serializes ids as JSON strings, like some hosted mock backends do.
	StringIDs      bool
	RequestTimeout time.Duration
	Logger         log.FieldLogger
}

type Server struct {
	store    store.TaskStore
	opts     Options
	log      log.FieldLogger
	validate *validator.Validate
}

func New(st store.TaskStore, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		store:    st,
		opts:     opts,
		log:      logger.WithField("component", "devserver"),
		validate: validator.New(),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(jsonHeader)
		r.Use(requestTimeout(s.opts.RequestTimeout))

		r.Get("/", s.listTasks)
		r.Post("/", s.createTask)
		r.Get("/{id}", s.getTask)
		r.Put("/{id}", s.replaceTask)
		r.Delete("/{id}", s.deleteTask)
	})
	return r
}

// Serve runs the server on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.log.WithField("addr", ln.Addr().String()).Info("task server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		s.log.Info("task server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
