// Package api exposes the pricing and health engines over HTTP for
// dashboards and transaction-preview UIs.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/health"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/pricing"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/swap"
)

// Server bundles the engine dependencies behind a chi router.
type Server struct {
	router   *chi.Mux
	prices   *pricing.Engine
	analyzer *health.Analyzer
	logger   *zap.Logger
	started  time.Time
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// QuoteRequest is the POST /v1/quote body.
type QuoteRequest struct {
	AmountIn    string `json:"amount_in"`
	ReserveIn   string `json:"reserve_in"`
	ReserveOut  string `json:"reserve_out"`
	FeeBps      uint16 `json:"fee_bps"`
	SlippageBps uint16 `json:"slippage_bps"`
}

// AnalyzeRequest is the POST /v1/positions/analyze body.
type AnalyzeRequest struct {
	Items []health.Item `json:"items"`
}

// NewServer constructs a Server with registered routes.
func NewServer(prices *pricing.Engine, analyzer *health.Analyzer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		router:   chi.NewRouter(),
		prices:   prices,
		analyzer: analyzer,
		logger:   logger,
		started:  time.Now(),
	}

	s.router.Get("/healthz", s.instrument("healthz", s.healthzHandler))
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/quote", s.instrument("quote", s.quoteHandler))
		r.Get("/price", s.instrument("price", s.priceHandler))
		r.Get("/pools", s.instrument("pools", s.poolsHandler))
		r.Post("/positions/analyze", s.instrument("analyze", s.analyzeHandler))
	})

	return s
}

// Handler exposes the underlying router for serving and integration tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Millisecond).String(),
	})
}

func (s *Server) quoteHandler(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	amountIn, err := model.ParseBigInt(req.AmountIn)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	reserveIn, err := model.ParseBigInt(req.ReserveIn)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	reserveOut, err := model.ParseBigInt(req.ReserveOut)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	quote, err := swap.ComputeQuote(amountIn, reserveIn, reserveOut, req.FeeBps, req.SlippageBps)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) priceHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	quoteToken := r.URL.Query().Get("quote")
	if token == "" || quoteToken == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "token and quote query params are required"})
		return
	}

	price, err := s.prices.PriceOfSymbols(r.Context(), token, quoteToken)
	if err != nil {
		// An exhausted discovery chain is an expected condition for
		// long-tail tokens, not a server error.
		if errors.Is(err, model.ErrPriceUnavailable) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "price data unavailable"})
			return
		}
		if errors.Is(err, model.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("price lookup failed", zap.String("token", token), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "upstream failure"})
		return
	}

	writeJSON(w, http.StatusOK, price)
}

func (s *Server) poolsHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "token query param is required"})
		return
	}

	tokenAddr, err := s.prices.Registry().AddressOf(token)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	refs, err := s.prices.PoolsFor(r.Context(), tokenAddr)
	if err != nil {
		s.logger.Error("pool enumeration failed", zap.String("token", token), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "upstream failure"})
		return
	}

	writeJSON(w, http.StatusOK, refs)
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "items is required"})
		return
	}

	results := s.analyzer.AnalyzeAll(r.Context(), req.Items)
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
