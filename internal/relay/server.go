// Package relay is the HTTP service that holds the table credential and
// exposes a flat client-record API to front ends.
package relay

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/clientctl/clientctl/internal/apiutil"
	"github.com/clientctl/clientctl/internal/tableapi"
	"golang.org/x/sync/errgroup"
)

const (
	maxBodyBytes      = 1 << 20
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

//go:embed static
var embedded embed.FS

// Server relays client-record calls to the table service.
type Server struct {
	settings Settings
	table    tableapi.Client
	assets   fs.FS
	logger   *slog.Logger
}

// New builds a Server. Missing table settings are reported through logger but
// do not prevent the relay from starting.
func New(settings Settings, doer apiutil.Doer, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	table := settings.table()
	table.Doer = doer
	if err := table.Validate(); err != nil {
		logger.Error("missing environment variables; table service calls will fail",
			"error", err, "variables", strings.Join(settings.Missing(), ", "))
	}

	var assets fs.FS
	if dir := strings.TrimSpace(settings.StaticDir); dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, errors.New("static dir " + dir + " is not a directory")
		}
		assets = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(embedded, "static")
		if err != nil {
			return nil, err
		}
		assets = sub
	}

	return &Server{
		settings: settings,
		table:    table,
		assets:   assets,
		logger:   logger,
	}, nil
}

// Handler returns the relay routes wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/clients", s.handleList)
	mux.HandleFunc("POST /api/clients", s.handleCreate)
	mux.HandleFunc("PATCH /api/clients/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/clients/{id}", s.handleDelete)
	mux.HandleFunc("GET /config.json", s.handleConfig)
	mux.HandleFunc("GET /", s.handleStatic)

	return withRequestID(withCORS(withLogging(mux, s.logger)))
}

// Serve runs the relay on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		ReadHeaderTimeout: readHeaderTimeout,
		Handler:           s.Handler(),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Debug("shutting down relay", "listen_address", ln.Addr().String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.settings.Addr())
	if err != nil {
		return err
	}
	s.logger.Info("relay listening", "listen_address", ln.Addr().String())
	return s.Serve(ctx, ln)
}
