// Package api exposes the settlement boundary over HTTP: list, get,
// create, cancel, and quote operations delegating to the ledger
// adapter and the quote engine. Transport details are deliberately
// thin; all amounts cross this boundary as decimal strings.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/intentswap/settler/pkg/ledger"
	"github.com/intentswap/settler/pkg/logger"
	"github.com/intentswap/settler/pkg/metrics"
	"github.com/intentswap/settler/pkg/quote"
)

// NewRouter builds the settlement API router.
func NewRouter(led ledger.Adapter, prices quote.Table, mode string, lg logger.Logger) chi.Router {
	h := &IntentHandler{
		ledger: led,
		prices: prices,
		logger: lg,
	}

	r := chi.NewRouter()
	r.Use(requestLogging(lg))

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":   true,
			"mode": mode,
		})
	})

	r.Get("/api/intents", h.List)
	r.Get("/api/intents/{id}", h.Get)
	r.Post("/api/intents/create", h.Create)
	r.Post("/api/intents/{id}/cancel", h.Cancel)
	r.Get("/api/quote", h.Quote)

	return r
}

// requestLogging logs each request and updates the API request
// counter.
func requestLogging(lg logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			metrics.APIRequests.WithLabelValues(r.URL.Path, strconv.Itoa(ww.status)).Inc()
			lg.DebugC(logger.API, "%s %s -> %d (%v)", r.Method, r.URL.Path, ww.status, time.Since(start))
		})
	}
}

// statusWriter captures the response status code for logging.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}
