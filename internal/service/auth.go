// auth.go — определение уровня доступа при входе через Discord.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dayzadb/adb-dashboard/internal/domain/rbac"
	"github.com/dayzadb/adb-dashboard/internal/repository"
)

// AllowList — проверка Discord ID по настроенному allow-list.
// Реализуется config.Config.
type AllowList interface {
	IsAllowed(discordID string) bool
}

// AuthService — определение уровня доступа входящего пользователя.
// Роль определяется один раз при входе и фиксируется в сессии.
type AuthService struct {
	users     repository.UserAccessRepository
	policy    *rbac.Policy
	allowList AllowList
	logger    *slog.Logger
}

// NewAuthService создаёт сервис определения доступа.
func NewAuthService(
	users repository.UserAccessRepository,
	policy *rbac.Policy,
	allowList AllowList,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		policy:    policy,
		allowList: allowList,
		logger:    logger.With(slog.String("component", "auth_service")),
	}
}

// ResolveAccess возвращает уровень доступа для Discord ID.
// Порядок проверок:
//  1. владелец бота допускается всегда (роль super-admin, если записи нет);
//  2. при настроенном allow-list неперечисленные ID отклоняются;
//  3. уровень берётся из user_access;
//  4. допущенные, но неизвестные ID получают роль user.
func (s *AuthService) ResolveAccess(ctx context.Context, discordID string) (string, error) {
	isOwner := s.policy.IsOwner(discordID)

	if !isOwner && !s.allowList.IsAllowed(discordID) {
		s.logger.Warn("Вход отклонён: Discord ID не в allow-list",
			slog.String("discord_id", discordID),
		)
		return "", fmt.Errorf("%w: доступ к дашборду не разрешён", ErrForbidden)
	}

	ua, err := s.users.GetByDiscordID(ctx, discordID)
	if err != nil {
		if isNotFound(err) {
			if isOwner {
				return rbac.RoleSuperAdmin, nil
			}
			// Допущенный, но неизвестный пользователь — минимальная роль
			return rbac.RoleUser, nil
		}
		return "", err
	}
	return ua.AccessLevel, nil
}
