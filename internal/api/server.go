package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/quote-feed/internal/poller"
	"github.com/quote-feed/pkg/config"
	"github.com/quote-feed/pkg/models"
)

// Engine is the slice of the poll scheduler the read API needs.
type Engine interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetHistory(ctx context.Context, symbol string, days int) ([]models.Bar, error)
	GetLatest(asset string) (*models.Quote, bool)
	GetAllLatest() []*models.Quote
	AddToWatchlist(symbol string, class models.AssetClass) (models.AssetClass, string, error)
	Watchlist() map[models.AssetClass][]string
}

// Broadcaster is the slice of the messaging client the health surface
// needs: a liveness check plus the system-stream status publish.
type Broadcaster interface {
	IsConnected() bool
	PublishHealthStatus(status map[string]interface{}) error
}

// CacheHealth reports fallback-store availability.
type CacheHealth interface {
	Health(ctx context.Context) error
}

// Server exposes the quote engine over HTTP.
type Server struct {
	cfg        *config.Config
	logger     *logrus.Logger
	router     *mux.Router
	httpServer *http.Server

	engine Engine
	nats   Broadcaster
	cache  CacheHealth
}

// NewServer creates the API server. nats may be nil when the broadcast
// sink is disabled, cache when Redis is disabled.
func NewServer(cfg *config.Config, logger *logrus.Logger, engine Engine, nats Broadcaster, cache CacheHealth) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		engine: engine,
		nats:   nats,
		cache:  cache,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	if s.cfg.Security.CORSEnabled {
		s.router.Use(s.corsMiddleware)
	}

	apiV1 := s.router.PathPrefix("/api/v1").Subrouter()

	apiV1.HandleFunc("/health", s.handleHealth).Methods("GET")

	apiV1.HandleFunc("/quote/{symbol}", s.handleGetQuote).Methods("GET")
	apiV1.HandleFunc("/history/{symbol}", s.handleGetHistory).Methods("GET")
	apiV1.HandleFunc("/latest", s.handleGetLatest).Methods("GET")
	apiV1.HandleFunc("/latest/{asset}", s.handleGetLatestAsset).Methods("GET")

	apiV1.HandleFunc("/watchlist", s.handleGetWatchlist).Methods("GET")
	apiV1.HandleFunc("/watchlist", s.handleAddToWatchlist).Methods("POST")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := s.cfg.GetServerAddr()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.WithField("address", addr).Info("Starting HTTP server")

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Middleware functions

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.statusCode,
			"duration": time.Since(start),
			"remote":   r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithFields(logrus.Fields{
					"error": err,
					"path":  r.URL.Path,
				}).Error("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(s.cfg.Security.CORSOrigins),
		handlers.AllowedMethods(s.cfg.Security.CORSMethods),
		handlers.AllowedHeaders(s.cfg.Security.CORSHeaders),
	)(next)
}

// Handler functions

// handleHealth reports the state of the configured infrastructure
// clients and mirrors the report onto the system stream so monitors
// subscribed there see the same view.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	services := map[string]bool{}
	if s.nats != nil {
		services["nats"] = s.nats.IsConnected()
	}
	if s.cache != nil {
		services["redis"] = s.cache.Health(r.Context()) == nil
	}

	status := "healthy"
	for _, up := range services {
		if !up {
			status = "degraded"
		}
	}

	if s.nats != nil && services["nats"] {
		report := make(map[string]interface{}, len(services))
		for name, up := range services {
			report[name] = up
		}
		if err := s.nats.PublishHealthStatus(report); err != nil {
			s.logger.WithError(err).Warn("Failed to publish health status")
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"services":  services,
		"timestamp": time.Now().Unix(),
	})
}

// handleGetQuote resolves a fresh quote through the fallback chain,
// bypassing the snapshot store.
func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	quote, err := s.engine.GetQuote(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, poller.ErrUnrecognizedSymbol) {
			http.Error(w, "Unrecognized symbol", http.StatusBadRequest)
			return
		}
		s.logger.WithError(err).WithField("symbol", symbol).Error("Failed to resolve quote")
		http.Error(w, "Failed to resolve quote", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			http.Error(w, "days must be between 1 and 365", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	bars, err := s.engine.GetHistory(r.Context(), symbol, days)
	if err != nil {
		if errors.Is(err, poller.ErrUnrecognizedSymbol) {
			http.Error(w, "Unrecognized symbol", http.StatusBadRequest)
			return
		}
		s.logger.WithError(err).WithField("symbol", symbol).Error("Failed to fetch history")
		http.Error(w, "Failed to fetch history", http.StatusInternalServerError)
		return
	}

	if bars == nil {
		bars = []models.Bar{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"days":   days,
		"bars":   bars,
		"count":  len(bars),
	})
}

// handleGetLatest returns every stored snapshot from the last poll
// cycles.
func (s *Server) handleGetLatest(w http.ResponseWriter, r *http.Request) {
	quotes := s.engine.GetAllLatest()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quotes": quotes,
		"count":  len(quotes),
	})
}

func (s *Server) handleGetLatestAsset(w http.ResponseWriter, r *http.Request) {
	asset := mux.Vars(r)["asset"]

	quote, ok := s.engine.GetLatest(asset)
	if !ok {
		http.Error(w, "No snapshot for asset", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Watchlist())
}

func (s *Server) handleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
		Class  string `json:"class,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Symbol == "" {
		http.Error(w, "Symbol is required", http.StatusBadRequest)
		return
	}

	class, canonical, err := s.engine.AddToWatchlist(req.Symbol, models.AssetClass(strings.ToUpper(req.Class)))
	if err != nil {
		http.Error(w, "Unrecognized symbol", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"asset":  canonical,
		"class":  class,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
