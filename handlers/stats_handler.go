package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"engins-backoffice/models"
	"engins-backoffice/utils"

	"go.uber.org/zap"
)

// StatsProvider calcule les statistiques exposées par le tableau de bord
type StatsProvider interface {
	Overview(ctx context.Context) (*models.OverviewStats, error)
	TopRanking(ctx context.Context, rankingType string, limit int, period string) (*models.Ranking, error)
	TimeSeries(ctx context.Context, seriesType, period string) (*models.TimeSeries, error)
}

// CacheInvalidator vide le cache des statistiques
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// StatsHandler gère le tableau de bord et les statistiques
type StatsHandler struct {
	stats  StatsProvider
	cache  CacheInvalidator
	logger *zap.SugaredLogger
}

// NewStatsHandler crée une nouvelle instance de StatsHandler. cache peut être nil.
func NewStatsHandler(stats StatsProvider, cache CacheInvalidator, logger *zap.SugaredLogger) *StatsHandler {
	return &StatsHandler{stats: stats, cache: cache, logger: logger}
}

type dashboardResponse struct {
	Stats    models.OverviewStats `json:"stats"`
	Degraded bool                 `json:"degraded"`
}

// Dashboard retourne l'instantané, ou des statistiques à zéro si le calcul échoue
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Overview(r.Context())
	if err != nil {
		h.logger.Warnw("⚠️ Statistiques indisponibles, valeurs par défaut", "error", err)
		utils.RespondSuccess(w, "", dashboardResponse{Stats: models.DefaultOverviewStats(), Degraded: true})
		return
	}
	utils.RespondSuccess(w, "", dashboardResponse{Stats: *stats})
}

// Overview retourne l'instantané sans valeur de repli
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Overview(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "statistiques", err)
		return
	}
	utils.RespondSuccess(w, "", stats)
}

// Top retourne un classement (?type=&limit=&period=)
func (h *StatsHandler) Top(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			utils.RespondServiceError(w, utils.ValidationError{Field: "limit", Message: "limite invalide"})
			return
		}
		limit = n
	}
	ranking, err := h.stats.TopRanking(r.Context(), q.Get("type"), limit, q.Get("period"))
	if err != nil {
		respondServiceError(w, h.logger, "classement", err)
		return
	}
	utils.RespondSuccess(w, "", ranking)
}

// Series retourne une série temporelle (?type=&period=)
func (h *StatsHandler) Series(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	series, err := h.stats.TimeSeries(r.Context(), q.Get("type"), q.Get("period"))
	if err != nil {
		respondServiceError(w, h.logger, "série temporelle", err)
		return
	}
	utils.RespondSuccess(w, "", series)
}

// InvalidateCache vide le cache des statistiques
func (h *StatsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if h.cache == nil {
		utils.RespondSuccess(w, "Aucun cache configuré", nil)
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		respondServiceError(w, h.logger, "invalidation cache", err)
		return
	}
	h.logger.Infow("✓ Cache des statistiques vidé")
	utils.RespondSuccess(w, "Cache vidé", nil)
}
