package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phonghmnguyen/atm/telemetry"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type Server struct {
	router chi.Router

	http *http.Server
}

func NewServer(l Ledger) *Server {
	ac := NewAccountController(l)

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(TelemetryMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/", home)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSONResponse(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", ac.ListAccounts)
		r.Route("/{account}", func(r chi.Router) {
			r.Use(AccountExtractorMiddleware)
			r.Get("/balance", ac.Balance)
			r.Post("/withdraw", ac.Withdraw)
			r.Post("/deposit", ac.Deposit)
		})
	})

	return &Server{
		router: r,
		http: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	telemetry.Log().Infof("Starting HTTP API Server on %s", addr)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	if err := s.http.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) GracefulStop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	telemetry.Log().Infof("Shutting down HTTP API Server")
	return s.http.Shutdown(ctx)
}

func home(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"message": "ATM System Server",
		"status":  "running",
		"endpoints": map[string]string{
			"get_balance":   "GET /accounts/{account_number}/balance",
			"withdraw":      "POST /accounts/{account_number}/withdraw",
			"deposit":       "POST /accounts/{account_number}/deposit",
			"list_accounts": "GET /accounts",
		},
	})
}
