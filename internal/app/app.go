// Package app owns the runtime of the mock-interview service: the session
// registry with its idle sweeper, and the App lifecycle that serves the HTTP
// API and tears everything down in order on shutdown.
//
// main constructs the providers and the HTTP handler, then hands both to
// [New]; [App.Run] blocks until the context is cancelled and returns after a
// graceful drain.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mockingbird-ai/mockingbird/internal/config"
)

// Server drain and read header defaults.
const (
	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

// App runs the service: the HTTP server, the session sweeper, and optional
// background tasks, all tied to one context.
type App struct {
	cfg      *config.Config
	handler  http.Handler
	sessions *SessionManager
	log      *slog.Logger

	srv             *http.Server
	shutdownTimeout time.Duration

	mu        sync.Mutex
	boundAddr string

	// closers are called in reverse order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for [New].
type Option func(*App)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithShutdownTimeout bounds the graceful HTTP drain. Defaults to 10s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// WithCloser registers a cleanup function run during Shutdown, after the
// HTTP server has drained. Closers run in reverse registration order.
func WithCloser(fn func() error) Option {
	return func(a *App) { a.closers = append(a.closers, fn) }
}

// New assembles an App. The handler is the fully wired HTTP mux (API routes,
// health, metrics, middleware); sessions is the registry whose sweeper the
// App runs.
func New(cfg *config.Config, handler http.Handler, sessions *SessionManager, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config must not be nil")
	}
	if handler == nil {
		return nil, errors.New("app: handler must not be nil")
	}
	if sessions == nil {
		return nil, errors.New("app: session manager must not be nil")
	}

	a := &App{
		cfg:             cfg,
		handler:         handler,
		sessions:        sessions,
		log:             slog.Default(),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, o := range opts {
		o(a)
	}

	a.srv = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return a, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests and runs
// the registered closers. A listen failure is returned immediately.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.srv.Addr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", a.srv.Addr, err)
	}
	a.mu.Lock()
	a.boundAddr = ln.Addr().String()
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("http server listening",
			"addr", ln.Addr().String(),
			"tls", a.cfg.Server.TLS != nil)

		var serveErr error
		if tls := a.cfg.Server.TLS; tls != nil {
			serveErr = a.srv.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			serveErr = a.srv.Serve(ln)
		}
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return serveErr
	})

	g.Go(func() error {
		return a.sessions.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

// Addr returns the bound listen address once Run has opened the listener,
// and the configured address before that. Useful for tests binding to ":0".
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.boundAddr != "" {
		return a.boundAddr
	}
	return a.srv.Addr
}

// Shutdown drains the HTTP server within the shutdown timeout, then runs the
// closers in reverse order. Safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.log.Info("shutting down", "closers", len(a.closers))

		drainCtx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
		defer cancel()
		if err := a.srv.Shutdown(drainCtx); err != nil {
			a.log.Warn("http drain incomplete", "error", err)
			shutdownErr = err
		}

		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](); err != nil {
				a.log.Warn("closer error", "index", i, "error", err)
			}
		}

		a.log.Info("shutdown complete")
	})
	return shutdownErr
}
