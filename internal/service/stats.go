// stats.go — сервис статистики игроков и динамики регистраций.
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

// StatsService — агрегированная статистика и динамика регистраций.
// Для роли user область видимости ограничена назначенными серверами.
type StatsService struct {
	players repository.PlayerRepository
	configs repository.GuildConfigRepository
	users   repository.UserAccessRepository
	policy  *rbac.Policy
	logger  *slog.Logger
}

// NewStatsService создаёт сервис статистики.
func NewStatsService(
	players repository.PlayerRepository,
	configs repository.GuildConfigRepository,
	users repository.UserAccessRepository,
	policy *rbac.Policy,
	logger *slog.Logger,
) *StatsService {
	return &StatsService{
		players: players,
		configs: configs,
		users:   users,
		policy:  policy,
		logger:  logger.With(slog.String("component", "stats_service")),
	}
}

// VisibleServers возвращает имена серверов, доступных сессии:
// все серверы для moderator и выше, назначенные — для user.
func (s *StatsService) VisibleServers(ctx context.Context, session *auth.SessionData) ([]string, error) {
	if s.policy.CanViewAll(session.DiscordID, session.AccessLevel) {
		return s.configs.ServerNames(ctx)
	}
	return s.users.AssignedServers(ctx, session.DiscordID)
}

// Stats возвращает агрегированную статистику по игрокам.
// serverFilter "" или "All" — по всем видимым серверам.
func (s *StatsService) Stats(ctx context.Context, session *auth.SessionData, serverFilter string) (*model.PlayerStats, error) {
	filter, err := s.resolveFilter(ctx, session, serverFilter)
	if err != nil {
		return nil, err
	}
	return s.players.Stats(ctx, filter)
}

// Trend возвращает число регистраций по календарным дням.
func (s *StatsService) Trend(ctx context.Context, session *auth.SessionData, serverFilter string) ([]model.TrendPoint, error) {
	filter, err := s.resolveFilter(ctx, session, serverFilter)
	if err != nil {
		return nil, err
	}
	return s.players.Trend(ctx, filter)
}

// resolveFilter проверяет фильтр по серверу против области видимости сессии.
// Роль user обязана указать один из назначенных серверов; фильтр «все»
// ей недоступен.
func (s *StatsService) resolveFilter(ctx context.Context, session *auth.SessionData, serverFilter string) (string, error) {
	if s.policy.CanViewAll(session.DiscordID, session.AccessLevel) {
		return serverFilter, nil
	}

	assigned, err := s.users.AssignedServers(ctx, session.DiscordID)
	if err != nil {
		return "", err
	}
	if len(assigned) == 0 {
		return "", fmt.Errorf("%w: нет назначенных серверов", ErrForbidden)
	}

	// Без явного фильтра при единственном назначенном сервере — используем его
	if serverFilter == "" || serverFilter == repository.ServerFilterAll {
		if len(assigned) == 1 {
			return assigned[0], nil
		}
		return "", fmt.Errorf("%w: укажите один из назначенных серверов", ErrForbidden)
	}

	for _, name := range assigned {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(serverFilter)) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: сервер %q не назначен пользователю", ErrForbidden, serverFilter)
}
