// users.go — сервис управления пользователями дашборда и их правами.
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

// UserAccessService — управление пользователями дашборда.
// Все операции доступны admin и выше; изменение конкретной записи
// дополнительно требует строго большего ранга, чем у цели.
type UserAccessService struct {
	users  repository.UserAccessRepository
	audit  *ActivityLogService
	policy *rbac.Policy
	logger *slog.Logger
}

// NewUserAccessService создаёт сервис управления пользователями.
func NewUserAccessService(
	users repository.UserAccessRepository,
	audit *ActivityLogService,
	policy *rbac.Policy,
	logger *slog.Logger,
) *UserAccessService {
	return &UserAccessService{
		users:  users,
		audit:  audit,
		policy: policy,
		logger: logger.With(slog.String("component", "user_access_service")),
	}
}

// List возвращает всех пользователей дашборда. Доступ — admin и выше.
func (s *UserAccessService) List(ctx context.Context, session *auth.SessionData) ([]*model.UserAccess, error) {
	if !s.policy.CanManageUsers(session.DiscordID, session.AccessLevel) {
		return nil, fmt.Errorf("%w: управление пользователями доступно администраторам и выше", ErrForbidden)
	}
	return s.users.List(ctx)
}

// Add добавляет пользователя с указанным уровнем доступа.
// Выдаваемая роль должна быть строго ниже роли актора (кроме владельца).
func (s *UserAccessService) Add(ctx context.Context, session *auth.SessionData, ua *model.UserAccess) (*model.UserAccess, error) {
	if !s.policy.CanManageUsers(session.DiscordID, session.AccessLevel) {
		return nil, fmt.Errorf("%w: управление пользователями доступно администраторам и выше", ErrForbidden)
	}
	if strings.TrimSpace(ua.DiscordID) == "" {
		return nil, fmt.Errorf("%w: Discord ID не может быть пустым", ErrValidation)
	}
	if !rbac.IsValidRole(ua.AccessLevel) {
		return nil, ErrInvalidRole
	}
	if !s.policy.CanGrant(session.DiscordID, session.AccessLevel, ua.AccessLevel) {
		return nil, fmt.Errorf("%w: нельзя выдать роль %q", ErrForbidden, ua.AccessLevel)
	}

	if err := s.users.Create(ctx, ua); err != nil {
		return nil, mapRepoError(err)
	}

	s.audit.Record(ctx, session.DiscordID, "add_user",
		fmt.Sprintf("Добавлен пользователь %s (%s) с ролью %s", ua.Username, ua.DiscordID, ua.AccessLevel),
		nil, ua)
	return ua, nil
}

// Update изменяет имя и уровень доступа пользователя.
// Требуется строго больший ранг, чем у цели до и после изменения.
func (s *UserAccessService) Update(ctx context.Context, session *auth.SessionData, ua *model.UserAccess) (*model.UserAccess, error) {
	if !s.policy.CanManageUsers(session.DiscordID, session.AccessLevel) {
		return nil, fmt.Errorf("%w: управление пользователями доступно администраторам и выше", ErrForbidden)
	}
	if !rbac.IsValidRole(ua.AccessLevel) {
		return nil, ErrInvalidRole
	}

	before, err := s.users.GetByDiscordID(ctx, ua.DiscordID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !s.policy.CanModify(session.DiscordID, session.AccessLevel, before.AccessLevel) {
		return nil, fmt.Errorf("%w: нельзя изменять пользователя с ролью %q", ErrForbidden, before.AccessLevel)
	}
	if !s.policy.CanGrant(session.DiscordID, session.AccessLevel, ua.AccessLevel) {
		return nil, fmt.Errorf("%w: нельзя выдать роль %q", ErrForbidden, ua.AccessLevel)
	}

	if err := s.users.Update(ctx, ua); err != nil {
		return nil, mapRepoError(err)
	}

	s.audit.Record(ctx, session.DiscordID, "update_user",
		fmt.Sprintf("Изменён пользователь %s (%s)", ua.Username, ua.DiscordID),
		before, ua)
	return ua, nil
}

// Remove удаляет пользователя вместе с привязками к серверам.
func (s *UserAccessService) Remove(ctx context.Context, session *auth.SessionData, discordID string) error {
	if !s.policy.CanManageUsers(session.DiscordID, session.AccessLevel) {
		return fmt.Errorf("%w: управление пользователями доступно администраторам и выше", ErrForbidden)
	}

	before, err := s.users.GetByDiscordID(ctx, discordID)
	if err != nil {
		return mapRepoError(err)
	}
	if !s.policy.CanModify(session.DiscordID, session.AccessLevel, before.AccessLevel) {
		return fmt.Errorf("%w: нельзя удалить пользователя с ролью %q", ErrForbidden, before.AccessLevel)
	}

	if err := s.users.Delete(ctx, discordID); err != nil {
		return mapRepoError(err)
	}

	s.audit.Record(ctx, session.DiscordID, "remove_user",
		fmt.Sprintf("Удалён пользователь %s (%s)", before.Username, before.DiscordID),
		before, nil)
	return nil
}

// AssignServers заменяет привязки пользователя к серверам целиком.
func (s *UserAccessService) AssignServers(ctx context.Context, session *auth.SessionData, discordID string, servers []string) (*model.UserAccess, error) {
	if !s.policy.CanManageUsers(session.DiscordID, session.AccessLevel) {
		return nil, fmt.Errorf("%w: управление пользователями доступно администраторам и выше", ErrForbidden)
	}

	before, err := s.users.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !s.policy.CanModify(session.DiscordID, session.AccessLevel, before.AccessLevel) {
		return nil, fmt.Errorf("%w: нельзя изменять пользователя с ролью %q", ErrForbidden, before.AccessLevel)
	}

	// Пустые имена отбрасываются, дубликаты схлопываются
	cleaned := make([]string, 0, len(servers))
	seen := make(map[string]bool, len(servers))
	for _, name := range servers {
		name = strings.TrimSpace(name)
		if name == "" || seen[normalizeName(name)] {
			continue
		}
		seen[normalizeName(name)] = true
		cleaned = append(cleaned, name)
	}

	if err := s.users.AssignServers(ctx, discordID, cleaned); err != nil {
		return nil, mapRepoError(err)
	}

	after, err := s.users.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.audit.Record(ctx, session.DiscordID, "assign_servers",
		fmt.Sprintf("Пользователю %s (%s) назначены серверы: %s",
			after.Username, after.DiscordID, strings.Join(cleaned, ", ")),
		before, after)
	return after, nil
}
