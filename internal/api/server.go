// Package api serves the quote pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/quote-engine/internal/config"
	"github.com/sells-group/quote-engine/internal/model"
	"github.com/sells-group/quote-engine/internal/ocr"
	"github.com/sells-group/quote-engine/internal/quote"
)

// Quoter generates quotes; *quote.Service implements it.
type Quoter interface {
	Generate(ctx context.Context, req quote.Request) (model.Quote, error)
}

// Server holds the HTTP handlers' collaborators.
type Server struct {
	quoter         Quoter
	ocr            ocr.Extractor
	cfg            config.ServerConfig
	freightTaxable bool
	limiter        *rate.Limiter
}

// NewServer creates a Server. freightTaxable is the default for requests
// that do not say.
func NewServer(q Quoter, ext ocr.Extractor, cfg config.ServerConfig, freightTaxable bool) *Server {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	return &Server{
		quoter:         q,
		ocr:            ext,
		cfg:            cfg,
		freightTaxable: freightTaxable,
		limiter:        rate.NewLimiter(limit, max(cfg.RateBurst, 1)),
	}
}

// Handler returns the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/generate-quote", s.handleGenerateQuote)
		r.Post("/process-rfq-image", s.handleProcessImage)
		r.Post("/process-rfq-csv", s.handleProcessCSV)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// rateLimit rejects requests beyond the process-wide token bucket.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
