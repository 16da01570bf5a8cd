// stats.go — обработчики статистики игроков.
// GET /api/v1/stats?server=... — агрегированная статистика
// GET /api/v1/stats/trend?server=... — динамика регистраций по дням
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/dayzadb/adb-dashboard/internal/api/errors"
	"github.com/dayzadb/adb-dashboard/internal/domain/model"
	"github.com/dayzadb/adb-dashboard/internal/service"
	"github.com/dayzadb/adb-dashboard/internal/ui/middleware"
)

// StatsHandler — обработчики статистики.
type StatsHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

// NewStatsHandler создаёт обработчик статистики.
func NewStatsHandler(stats *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: logger.With(slog.String("component", "stats_handler")),
	}
}

// statsResponse — агрегированная статистика.
type statsResponse struct {
	Total       int64 `json:"total"`
	Alts        int64 `json:"alts"`
	Watchlisted int64 `json:"watchlisted"`
	Whitelisted int64 `json:"whitelisted"`
	MultiDevice int64 `json:"multi_device"`
}

// GetStats — агрегированная статистика по игрокам.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	stats, err := h.stats.Stats(r.Context(), session, r.URL.Query().Get("server"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Total:       stats.Total,
		Alts:        stats.Alts,
		Watchlisted: stats.Watchlisted,
		Whitelisted: stats.Whitelisted,
		MultiDevice: stats.MultiDevice,
	})
}

// trendPointResponse — точка динамики регистраций.
type trendPointResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// GetTrend — динамика регистраций по календарным дням.
func (h *StatsHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	trend, err := h.stats.Trend(r.Context(), session, r.URL.Query().Get("server"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trendToResponse(trend))
}

// trendToResponse преобразует точки динамики в ответ API.
func trendToResponse(trend []model.TrendPoint) []trendPointResponse {
	result := make([]trendPointResponse, 0, len(trend))
	for _, pt := range trend {
		result = append(result, trendPointResponse{
			Date:  pt.Date.Format(time.DateOnly),
			Count: pt.Count,
		})
	}
	return result
}
