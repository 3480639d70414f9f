package health

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/intentswap/settler/pkg/circuitbreaker"
	"github.com/intentswap/settler/pkg/ledger"
	"github.com/intentswap/settler/pkg/logger"
)

// Server exposes liveness, readiness, ledger status and Prometheus
// metrics.
type Server struct {
	port          string
	mode          string
	ledger        ledger.Adapter
	breaker       *circuitbreaker.Breaker
	logger        logger.Logger
	metricsAPIKey string
}

// NewServer creates a health server for the given ledger.
func NewServer(port, mode string, led ledger.Adapter, breaker *circuitbreaker.Breaker, lg logger.Logger) *Server {
	return &Server{
		port:          port,
		mode:          mode,
		ledger:        led,
		breaker:       breaker,
		logger:        lg,
		metricsAPIKey: os.Getenv("METRICS_API_KEY"),
	}
}

// metricsAuthMiddleware checks for a valid API key when one is
// configured.
func (s *Server) metricsAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metricsAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		if parts[1] != s.metricsAPIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start runs the health server until the listener fails. It uses its
// own mux so it can share a process with the settlement API.
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Ready when the ledger answers a height read.
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if _, err := s.ledger.CurrentTime(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Ledger not reachable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ready"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"mode":    s.mode,
			"circuit": s.breaker.Snapshot(),
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if height, err := s.ledger.CurrentTime(ctx); err == nil {
			status["height"] = height
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			s.logger.ErrorC(logger.Health, "error encoding status JSON: %v", err)
		}
	})

	mux.Handle("/metrics", s.metricsAuthMiddleware(promhttp.Handler()))

	s.logger.InfoC(logger.Health, "starting health and metrics server on port %s", s.port)
	if err := http.ListenAndServe(":"+s.port, mux); err != nil {
		s.logger.ErrorC(logger.Health, "health server error: %v", err)
	}
}
