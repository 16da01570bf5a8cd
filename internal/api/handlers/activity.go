// activity.go — обработчик журнала действий.
// GET /api/v1/activity — записи журнала, новые первыми (moderator+)
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/dayzadb/adb-dashboard/internal/api/errors"
	"github.com/dayzadb/adb-dashboard/internal/service"
	"github.com/dayzadb/adb-dashboard/internal/ui/middleware"
)

// ActivityHandler — обработчик журнала действий.
type ActivityHandler struct {
	activity *service.ActivityLogService
	logger   *slog.Logger
}

// NewActivityHandler создаёт обработчик журнала действий.
func NewActivityHandler(activity *service.ActivityLogService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activity: activity,
		logger:   logger.With(slog.String("component", "activity_handler")),
	}
}

// activityEntryResponse — запись журнала в ответе API.
// Changes — человекочитаемый список изменённых полей,
// вычисленный из снимков состояния до/после.
type activityEntryResponse struct {
	ID        int64    `json:"id"`
	UserID    string   `json:"user_id"`
	Action    string   `json:"action"`
	Details   string   `json:"details"`
	Changes   []string `json:"changes"`
	Timestamp string   `json:"timestamp"`
}

// ListActivity — записи журнала действий (moderator+).
func (h *ActivityHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	entries, err := h.activity.List(r.Context(), session, parseLimit(r, 100, 500))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := make([]activityEntryResponse, 0, len(entries))
	for _, e := range entries {
		changes := service.DiffStates(e.BeforeState, e.AfterState)
		if changes == nil {
			changes = []string{}
		}
		result = append(result, activityEntryResponse{
			ID:        e.ID,
			UserID:    e.UserID,
			Action:    e.Action,
			Details:   e.Details,
			Changes:   changes,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, result)
}
