// servers.go — сервис конфигураций серверов.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dayzadb/adb-dashboard/internal/domain/model"
	"github.com/dayzadb/adb-dashboard/internal/domain/rbac"
	"github.com/dayzadb/adb-dashboard/internal/repository"
	"github.com/dayzadb/adb-dashboard/internal/ui/auth"
)

// ServerService — управление конфигурациями серверов.
// Чтение доступно всем сессиям (user видит только назначенные серверы),
// изменение — admin и выше.
type ServerService struct {
	configs repository.GuildConfigRepository
	users   repository.UserAccessRepository
	audit   *ActivityLogService
	policy  *rbac.Policy
	logger  *slog.Logger
}

// NewServerService создаёт сервис конфигураций серверов.
func NewServerService(
	configs repository.GuildConfigRepository,
	users repository.UserAccessRepository,
	audit *ActivityLogService,
	policy *rbac.Policy,
	logger *slog.Logger,
) *ServerService {
	return &ServerService{
		configs: configs,
		users:   users,
		audit:   audit,
		policy:  policy,
		logger:  logger.With(slog.String("component", "server_service")),
	}
}

// List возвращает конфигурации серверов, видимые сессии.
func (s *ServerService) List(ctx context.Context, session *auth.SessionData) ([]*model.GuildConfig, error) {
	all, err := s.configs.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.policy.CanViewAll(session.DiscordID, session.AccessLevel) {
		return all, nil
	}

	assigned, err := s.users.AssignedServers(ctx, session.DiscordID)
	if err != nil {
		return nil, err
	}
	assignedSet := make(map[string]bool, len(assigned))
	for _, name := range assigned {
		assignedSet[normalizeName(name)] = true
	}

	var visible []*model.GuildConfig
	for _, cfg := range all {
		if assignedSet[normalizeName(cfg.ServerName)] {
			visible = append(visible, cfg)
		}
	}
	return visible, nil
}

// ServerNames возвращает имена серверов, видимых сессии.
func (s *ServerService) ServerNames(ctx context.Context, session *auth.SessionData) ([]string, error) {
	if s.policy.CanViewAll(session.DiscordID, session.AccessLevel) {
		return s.configs.ServerNames(ctx)
	}
	return s.users.AssignedServers(ctx, session.DiscordID)
}

// Get возвращает конфигурацию сервера по идентификатору.
func (s *ServerService) Get(ctx context.Context, session *auth.SessionData, id int64) (*model.GuildConfig, error) {
	cfg, err := s.configs.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !s.policy.CanViewAll(session.DiscordID, session.AccessLevel) {
		assigned, err := s.users.AssignedServers(ctx, session.DiscordID)
		if err != nil {
			return nil, err
		}
		found := false
		for _, name := range assigned {
			if normalizeName(name) == normalizeName(cfg.ServerName) {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: сервер не назначен пользователю", ErrForbidden)
		}
	}
	return cfg, nil
}

// Update обновляет конфигурацию сервера. Доступ — admin и выше.
// При смене имени сервера игроки переносятся на новое имя в той же
// транзакции; конфликт имени оставляет и конфигурацию, и игроков
// без изменений. Изменение записывается в журнал действий.
func (s *ServerService) Update(ctx context.Context, session *auth.SessionData, cfg *model.GuildConfig) (*model.GuildConfig, error) {
	if !s.policy.CanManageUsers(session.DiscordID, session.AccessLevel) {
		return nil, fmt.Errorf("%w: изменение конфигурации доступно администраторам и выше", ErrForbidden)
	}
	if strings.TrimSpace(cfg.ServerName) == "" {
		return nil, fmt.Errorf("%w: имя сервера не может быть пустым", ErrValidation)
	}

	before, err := s.configs.GetByID(ctx, cfg.ID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	renamed := normalizeName(before.ServerName) != normalizeName(cfg.ServerName)
	var renamedPlayers int64
	if renamed {
		renamedPlayers, err = s.configs.UpdateWithRename(ctx, cfg, before.ServerName)
	} else {
		err = s.configs.Update(ctx, cfg)
	}
	if err != nil {
		return nil, mapRepoError(err)
	}

	details := fmt.Sprintf("Обновлена конфигурация сервера %q", cfg.ServerName)
	if renamed {
		details = fmt.Sprintf("Сервер %q переименован в %q, перенесено игроков: %d",
			before.ServerName, cfg.ServerName, renamedPlayers)
	}
	s.audit.Record(ctx, session.DiscordID, "update_server", details, before, cfg)

	return cfg, nil
}

// normalizeName приводит имя сервера к виду для сравнения
// (без учёта регистра и краевых пробелов, как в SQL-фильтрах).
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// mapRepoError транслирует ошибки репозитория в ошибки сервисного слоя.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}
