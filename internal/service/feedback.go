// feedback.go — сервис обратной связи пользователей дашборда.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dayzadb/adb-dashboard/internal/domain/model"
	"github.com/dayzadb/adb-dashboard/internal/domain/rbac"
	"github.com/dayzadb/adb-dashboard/internal/repository"
	"github.com/dayzadb/adb-dashboard/internal/ui/auth"
)

// Допустимые категории и приоритеты обращений.
var (
	feedbackCategories = map[string]bool{
		"general": true, "bug": true, "feature": true, "question": true,
	}
	feedbackPriorities = map[string]bool{
		"low": true, "normal": true, "high": true,
	}
)

// FeedbackService — приём и просмотр обращений.
// Отправить обращение может любая сессия, просмотр — moderator и выше.
type FeedbackService struct {
	repo   repository.FeedbackRepository
	policy *rbac.Policy
	logger *slog.Logger
}

// NewFeedbackService создаёт сервис обратной связи.
func NewFeedbackService(
	repo repository.FeedbackRepository,
	policy *rbac.Policy,
	logger *slog.Logger,
) *FeedbackService {
	return &FeedbackService{
		repo:   repo,
		policy: policy,
		logger: logger.With(slog.String("component", "feedback_service")),
	}
}

// Submit сохраняет обращение от имени текущей сессии.
func (s *FeedbackService) Submit(ctx context.Context, session *auth.SessionData, fb *model.Feedback) (*model.Feedback, error) {
	fb.UserID = session.DiscordID

	if strings.TrimSpace(fb.Subject) == "" {
		return nil, fmt.Errorf("%w: тема обращения не может быть пустой", ErrValidation)
	}
	if strings.TrimSpace(fb.Message) == "" {
		return nil, fmt.Errorf("%w: текст обращения не может быть пустым", ErrValidation)
	}
	if fb.Category == "" {
		fb.Category = "general"
	}
	if !feedbackCategories[fb.Category] {
		return nil, fmt.Errorf("%w: недопустимая категория %q", ErrValidation, fb.Category)
	}
	if fb.Priority == "" {
		fb.Priority = "normal"
	}
	if !feedbackPriorities[fb.Priority] {
		return nil, fmt.Errorf("%w: недопустимый приоритет %q", ErrValidation, fb.Priority)
	}

	if err := s.repo.Insert(ctx, fb); err != nil {
		return nil, err
	}

	s.logger.Info("Получено обращение",
		slog.String("user", fb.UserID),
		slog.String("category", fb.Category),
		slog.String("priority", fb.Priority),
	)
	return fb, nil
}

// List возвращает обращения, новые первыми. Доступ — moderator и выше.
func (s *FeedbackService) List(ctx context.Context, session *auth.SessionData, limit int) ([]*model.Feedback, error) {
	if !s.policy.CanModerate(session.DiscordID, session.AccessLevel) {
		return nil, fmt.Errorf("%w: просмотр обращений доступен модераторам и выше", ErrForbidden)
	}
	return s.repo.List(ctx, limit)
}
