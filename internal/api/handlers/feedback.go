// feedback.go — обработчики обратной связи.
// POST /api/v1/feedback — отправка обращения (любая сессия)
// GET /api/v1/feedback — список обращений (moderator+)
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

// FeedbackHandler — обработчики обратной связи.
type FeedbackHandler struct {
	feedback *service.FeedbackService
	logger   *slog.Logger
}

// NewFeedbackHandler создаёт обработчик обратной связи.
func NewFeedbackHandler(feedback *service.FeedbackService, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedback: feedback,
		logger:   logger.With(slog.String("component", "feedback_handler")),
	}
}

// feedbackRequest — тело запроса отправки обращения.
type feedbackRequest struct {
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// feedbackResponse — обращение в ответе API.
type feedbackResponse struct {
	ID        int64  `json:"id"`
	UserID    string `json:"user_id"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	Priority  string `json:"priority"`
	Timestamp string `json:"timestamp"`
}

func feedbackToResponse(fb *model.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:        fb.ID,
		UserID:    fb.UserID,
		Subject:   fb.Subject,
		Message:   fb.Message,
		Category:  fb.Category,
		Priority:  fb.Priority,
		Timestamp: fb.Timestamp.UTC().Format(time.RFC3339),
	}
}

// SubmitFeedback — отправка обращения от имени текущей сессии.
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса: "+err.Error())
		return
	}

	fb, err := h.feedback.Submit(r.Context(), session, &model.Feedback{
		Subject:  req.Subject,
		Message:  req.Message,
		Category: req.Category,
		Priority: req.Priority,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedbackToResponse(fb))
}

// ListFeedback — список обращений, новые первыми (moderator+).
func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	items, err := h.feedback.List(r.Context(), session, parseLimit(r, 100, 500))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := make([]feedbackResponse, 0, len(items))
	for _, fb := range items {
		result = append(result, feedbackToResponse(fb))
	}
	writeJSON(w, http.StatusOK, result)
}
