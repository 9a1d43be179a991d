package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/cors"
	sloghttp "github.com/samber/slog-http"
)

type Server struct {
	opts *Options
}

func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return errors.WithStack(err)
	}

	server := &http.Server{
		Addr:    s.opts.Address,
		Handler: handler,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return errors.WithStack(err)
	}

	slog.InfoContext(ctx, "http server listening", slog.String("address", listener.Addr().String()))

	errs := make(chan error, 1)

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- errors.WithStack(err)
		}

		close(errs)
	}()

	select {
	case err := <-errs:
		return errors.WithStack(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Handler returns the root handler of the server, with its mounts and middlewares.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	baseURL := strings.TrimSuffix(s.opts.BaseURL, "/")

	for prefix, handler := range s.opts.Mounts {
		if !strings.HasPrefix(prefix, "/") {
			return nil, errors.Errorf("invalid mount prefix '%s'", prefix)
		}

		trimmed := strings.TrimSuffix(prefix, "/")
		pattern := baseURL + prefix

		mux.Handle(pattern, http.StripPrefix(baseURL+trimmed, handler))
	}

	var handler http.Handler = mux

	if s.opts.BasicAuth != nil {
		handler = s.basicAuth(handler)
	}

	handler = cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(handler)

	handler = sloghttp.Recovery(handler)
	handler = sloghttp.NewWithConfig(slog.Default(), sloghttp.Config{
		WithRequestID: true,
	})(handler)

	return handler, nil
}

func NewServer(funcs ...OptionFunc) *Server {
	opts := NewOptions(funcs...)
	return &Server{
		opts: opts,
	}
}
