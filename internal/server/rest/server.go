// Package rest exposes the authentication flow over HTTP JSON:
// POST /create-challenge, POST /verify and GET /health.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/server/config"
	"github.com/dmitrijs2005/walletauth/internal/server/rola"
	"github.com/dmitrijs2005/walletauth/internal/server/services"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const shutdownTimeout = 5 * time.Second

// AuthService is the business logic behind the endpoints.
type AuthService interface {
	CreateChallenge(ctx context.Context) (string, error)
	Verify(ctx context.Context, b *rola.Bundle, acceptLanguage string) (*services.Outcome, error)
	Health(ctx context.Context) error
}

type HTTPServer struct {
	address string
	origin  string
	variant string
	auth    AuthService
	logger  logging.Logger
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, auth AuthService) *HTTPServer {
	return &HTTPServer{
		address: cfg.EndpointAddrHTTP,
		origin:  cfg.ExpectedOrigin,
		variant: cfg.ResponseVariant,
		auth:    auth,
		logger:  l.With("module", "http_server"),
	}
}

// Handler returns the routed handler with middleware and CORS applied.
func (s *HTTPServer) Handler() http.Handler {
	rtr := mux.NewRouter()
	rtr.Use(s.requestIDMiddleware, s.recoverMiddleware, s.loggingMiddleware)

	rtr.HandleFunc("/create-challenge", s.handleCreateChallenge).Methods(http.MethodPost)
	rtr.HandleFunc("/verify", s.handleVerify).Methods(http.MethodPost)
	rtr.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{s.origin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Accept-Language"},
	})
	return c.Handler(rtr)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
