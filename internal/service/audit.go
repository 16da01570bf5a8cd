// Пакет service — бизнес-логика ADB Dashboard.
// audit.go — журнал действий (append-only) и сравнение снимков состояния.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dayzadb/adb-dashboard/internal/domain/model"
	"github.com/dayzadb/adb-dashboard/internal/domain/rbac"
	"github.com/dayzadb/adb-dashboard/internal/repository"
	"github.com/dayzadb/adb-dashboard/internal/ui/auth"
)

// ActivityLogService — сервис журнала действий.
// Записи добавляются после успешного завершения изменяющей операции
// и никогда не изменяются.
type ActivityLogService struct {
	repo   repository.ActivityLogRepository
	policy *rbac.Policy
	logger *slog.Logger
}

// NewActivityLogService создаёт сервис журнала действий.
func NewActivityLogService(
	repo repository.ActivityLogRepository,
	policy *rbac.Policy,
	logger *slog.Logger,
) *ActivityLogService {
	return &ActivityLogService{
		repo:   repo,
		policy: policy,
		logger: logger.With(slog.String("component", "activity_log_service")),
	}
}

// Record добавляет запись в журнал. before и after — произвольные снимки
// состояния (сериализуются в JSON); nil — снимок не записывается.
// Ошибка записи в журнал логируется, но не прерывает вызывающую операцию:
// само изменение уже применено.
func (s *ActivityLogService) Record(ctx context.Context, actorID, action, details string, before, after any) {
	entry := &model.ActivityLogEntry{
		UserID:      actorID,
		Action:      action,
		Details:     details,
		BeforeState: marshalState(before),
		AfterState:  marshalState(after),
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error("Ошибка записи в журнал действий",
			slog.String("action", action),
			slog.String("actor", actorID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("Действие записано в журнал",
		slog.String("action", action),
		slog.String("actor", actorID),
	)
}

// List возвращает записи журнала, новые первыми. Доступ — moderator и выше.
func (s *ActivityLogService) List(ctx context.Context, session *auth.SessionData, limit int) ([]*model.ActivityLogEntry, error) {
	if !s.policy.CanModerate(session.DiscordID, session.AccessLevel) {
		return nil, fmt.Errorf("%w: журнал действий доступен модераторам и выше", ErrForbidden)
	}
	return s.repo.List(ctx, limit)
}

// marshalState сериализует снимок состояния в JSON.
// nil и ошибки сериализации дают пустую строку (NULL в базе).
func marshalState(state any) string {
	if state == nil {
		return ""
	}
	b, err := json.Marshal(state)
	if err != nil {
		return ""
	}
	return string(b)
}

// DiffStates сравнивает два JSON-снимка состояния по всем полям
// и возвращает человекочитаемый список изменений вида "поле: было → стало".
// Поля перечисляются в алфавитном порядке, неизменённые пропускаются.
func DiffStates(beforeJSON, afterJSON string) []string {
	before := unmarshalState(beforeJSON)
	after := unmarshalState(afterJSON)

	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var changes []string
	for _, k := range sorted {
		oldVal, hadOld := before[k]
		newVal, hasNew := after[k]
		if hadOld && hasNew && formatValue(oldVal) == formatValue(newVal) {
			continue
		}
		changes = append(changes, fmt.Sprintf("%s: %s → %s",
			k, formatValue(oldVal), formatValue(newVal)))
	}
	return changes
}

// unmarshalState разбирает JSON-снимок в map; пустой или некорректный
// снимок даёт пустую map.
func unmarshalState(s string) map[string]any {
	if s == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return map[string]any{}
	}
	return m
}

// formatValue приводит значение поля снимка к строке для сравнения и вывода.
func formatValue(v any) string {
	if v == nil {
		return "—"
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return "—"
		}
		return val
	case bool:
		if val {
			return "да"
		}
		return "нет"
	case float64:
		// JSON-числа приходят как float64
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
