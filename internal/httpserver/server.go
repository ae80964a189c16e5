package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gfdmit/blog-service/config"
)

type Server struct {
	server          *http.Server
	shutDownTimeout time.Duration
}

func New(conf config.HTTPServer, handler http.Handler) *Server {
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  conf.ReadTimeout,
		WriteTimeout: conf.WriteTimeout,
		Addr:         conf.Addr(),
	}

	s := &Server{
		server:          srv,
		shutDownTimeout: conf.ShutdownTimeout,
	}
	return s
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("[HTTPSERVER] listening on:", s.server.Addr)

	errChan := make(chan error, 1)
	go func() {
		err := s.server.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[SHUTDOWN] http server shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutDownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
