// Package api exposes the analysis, history and account use cases over
// HTTP with JSON bodies.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/usecase/account"
	"github.com/m-mizutani/washp/pkg/usecase/analysis"
	"github.com/m-mizutani/washp/pkg/usecase/history"
	"github.com/m-mizutani/washp/pkg/utils/logging"
)

// DefaultMaxUploadSize bounds the multipart body of an analysis request
const DefaultMaxUploadSize = 32 << 20

type Server struct {
	analysis *analysis.UseCase
	history  *history.UseCase
	account  *account.UseCase

	allowedOrigins []string
	shareBaseURL   string
	maxUploadSize  int64
}

type Option func(*Server)

func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowedOrigins = append(s.allowedOrigins, origins...)
	}
}

// WithShareBaseURL sets the public URL that share links point to
func WithShareBaseURL(url string) Option {
	return func(s *Server) {
		s.shareBaseURL = url
	}
}

func WithMaxUploadSize(n int64) Option {
	return func(s *Server) {
		s.maxUploadSize = n
	}
}

func New(analysisUC *analysis.UseCase, historyUC *history.UseCase, accountUC *account.UseCase, opts ...Option) *Server {
	s := &Server{
		analysis:      analysisUC,
		history:       historyUC,
		account:       accountUC,
		maxUploadSize: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(requestLogger)
	mux.Use(middleware.Recoverer)
	if len(s.allowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "Accept-Language"},
			MaxAge:         300,
		}))
	}
	mux.Use(detectLocale)

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.Route("/api/v1", func(rt chi.Router) {
		rt.Post("/auth/signup", s.wrap(s.handleSignUp))
		rt.Post("/auth/signin", s.wrap(s.handleSignIn))
		rt.Post("/auth/password-reset", s.wrap(s.handlePasswordReset))

		rt.Group(func(rt chi.Router) {
			rt.Use(s.authenticate)

			rt.Post("/auth/signout", s.wrap(s.handleSignOut))
			rt.Post("/auth/verify-email", s.wrap(s.handleVerifyEmail))
			rt.Get("/me", s.wrap(s.handleMe))
			rt.Delete("/account", s.wrap(s.handleDeleteAccount))

			rt.Post("/analyses", s.wrap(s.handleAnalyze))

			rt.Get("/history", s.wrap(s.handleListHistory))
			rt.Delete("/history", s.wrap(s.handleClearHistory))
			rt.Get("/history/{id}", s.wrap(s.handleGetHistory))
			rt.Delete("/history/{id}", s.wrap(s.handleDeleteHistory))
			rt.Get("/history/{id}/share", s.wrap(s.handleShareHistory))
		})
	})

	return mux
}

// Timeouts of the HTTP server
type Timeouts struct {
	Read     time.Duration `yaml:"read"`
	Write    time.Duration `yaml:"write"`
	Idle     time.Duration `yaml:"idle"`
	Shutdown time.Duration `yaml:"shutdown"`
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Read:     15 * time.Second,
		Write:    60 * time.Second,
		Idle:     60 * time.Second,
		Shutdown: 5 * time.Second,
	}
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string, timeouts Timeouts) error {
	return Serve(ctx, addr, s.Handler(), timeouts)
}

// Serve runs handler on addr until ctx is canceled, then shuts down within
// timeouts.Shutdown. A zero Write timeout leaves streamed responses open.
func Serve(ctx context.Context, addr string, handler http.Handler, timeouts Timeouts) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  timeouts.Read,
		WriteTimeout: timeouts.Write,
		IdleTimeout:  timeouts.Idle,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logging.From(ctx).Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return goerr.Wrap(err, "http server failed", goerr.V("addr", addr))

	case <-ctx.Done():
		logging.From(ctx).Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shut down http server")
		}
		return nil
	}
}
