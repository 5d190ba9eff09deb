// Package api 是在线打分服务的 HTTP 层：请求校验、Pipeline 调用、指标采集。
// 排序语义全部在 pipeline 及其 Node 里，这里只做边界转换。
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/searchop/core"
	"github.com/rushteam/searchop/feature"
	"github.com/rushteam/searchop/metrics"
	"github.com/rushteam/searchop/pipeline"
)

// Server 持有在线链路的全部依赖：Pipeline 即排序逻辑本身，
// Snapshot/ModelVersion 只用于健康检查与响应透出。
type Server struct {
	Pipeline     *pipeline.Pipeline
	Snapshot     *feature.Snapshot
	ModelVersion string
	Logger       zerolog.Logger

	validate *validator.Validate
}

func NewServer(p *pipeline.Pipeline, snapshot *feature.Snapshot, modelVersion string, logger zerolog.Logger) *Server {
	return &Server{
		Pipeline:     p,
		Snapshot:     snapshot,
		ModelVersion: modelVersion,
		Logger:       logger,
		validate:     validator.New(),
	}
}

// Router 组装路由。/metrics 暴露 Prometheus 指标。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/rank", s.handleRank)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "searchop",
		"rank":    "POST /rank",
		"health":  "GET /health",
		"metrics": "GET /metrics",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:       "ok",
		ModelVersion: s.ModelVersion,
		FeatureRows:  s.Snapshot.Len(),
	})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	metrics.ActiveRequests.Inc()
	defer func() {
		metrics.ActiveRequests.Dec()
		metrics.RankDuration.Observe(time.Since(start).Seconds())
	}()

	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RankRequests.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		metrics.RankRequests.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	rctx := &core.RankContext{
		Query:  req.Query,
		UserID: req.UserID,
		Scene:  req.Scene,
	}
	items := make([]*core.Item, 0, len(req.Products))
	for _, p := range req.Products {
		it := core.NewItem(p.ID)
		it.Title = p.Title
		it.Meta["title"] = p.Title
		it.Meta["price"] = p.Price
		it.Meta["rating"] = p.Rating
		it.Meta["category"] = p.Category
		it.Meta["brand"] = p.Brand
		items = append(items, it)
	}

	ranked, err := s.Pipeline.Run(r.Context(), rctx, items)
	if err != nil {
		metrics.RankRequests.WithLabelValues("error").Inc()
		s.Logger.Error().Err(err).
			Str("query", req.Query).
			Str("user_id", req.UserID).
			Int("candidates", len(req.Products)).
			Msg("rank pipeline failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "ranking failed: " + err.Error()})
		return
	}

	resp := RankResponse{
		Query:          req.Query,
		ModelVersion:   s.ModelVersion,
		RankedProducts: make([]RankedProduct, 0, len(ranked)),
	}
	for _, it := range ranked {
		if it == nil {
			continue
		}
		resp.RankedProducts = append(resp.RankedProducts, RankedProduct{
			ID:    it.ID,
			Score: it.Score,
			Title: it.Title,
		})
	}

	metrics.RankRequests.WithLabelValues("ok").Inc()
	s.Logger.Info().
		Str("query", req.Query).
		Str("user_id", req.UserID).
		Int("candidates", len(req.Products)).
		Int("returned", len(resp.RankedProducts)).
		Dur("elapsed", time.Since(start)).
		Msg("rank request served")
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
