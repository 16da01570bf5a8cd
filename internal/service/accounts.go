// accounts.go — сервис аккаунтов игроков: просмотр, модерация, группы альтов.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dayzadb/adb-dashboard/internal/domain/model"
	"github.com/dayzadb/adb-dashboard/internal/domain/rbac"
	"github.com/dayzadb/adb-dashboard/internal/repository"
	"github.com/dayzadb/adb-dashboard/internal/ui/auth"
)

// AccountService — работа с аккаунтами игроков.
// Просмотр доступен всем сессиям в пределах видимых серверов,
// изменение — moderator и выше.
type AccountService struct {
	players repository.PlayerRepository
	users   repository.UserAccessRepository
	audit   *ActivityLogService
	policy  *rbac.Policy
	logger  *slog.Logger
}

// NewAccountService создаёт сервис аккаунтов игроков.
func NewAccountService(
	players repository.PlayerRepository,
	users repository.UserAccessRepository,
	audit *ActivityLogService,
	policy *rbac.Policy,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		players: players,
		users:   users,
		audit:   audit,
		policy:  policy,
		logger:  logger.With(slog.String("component", "account_service")),
	}
}

// List возвращает аккаунты по фильтру в пределах видимых серверов.
func (s *AccountService) List(ctx context.Context, session *auth.SessionData, filter repository.PlayerFilter) ([]*model.Player, error) {
	if !s.policy.CanViewAll(session.DiscordID, session.AccessLevel) {
		assigned, err := s.users.AssignedServers(ctx, session.DiscordID)
		if err != nil {
			return nil, err
		}
		if len(assigned) == 0 {
			return nil, fmt.Errorf("%w: нет назначенных серверов", ErrForbidden)
		}
		// Роль user просматривает серверы по одному
		if !hasExplicitFilter(filter.ServerName) {
			if len(assigned) != 1 {
				return nil, fmt.Errorf("%w: укажите один из назначенных серверов", ErrForbidden)
			}
			filter.ServerName = assigned[0]
		} else if !containsName(assigned, filter.ServerName) {
			return nil, fmt.Errorf("%w: сервер %q не назначен пользователю", ErrForbidden, filter.ServerName)
		}
	}
	return s.players.List(ctx, filter)
}

// Get возвращает аккаунт по идентификатору.
func (s *AccountService) Get(ctx context.Context, session *auth.SessionData, id int64) (*model.Player, error) {
	p, err := s.players.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !s.policy.CanViewAll(session.DiscordID, session.AccessLevel) {
		assigned, err := s.users.AssignedServers(ctx, session.DiscordID)
		if err != nil {
			return nil, err
		}
		if !containsName(assigned, p.ServerName) {
			return nil, fmt.Errorf("%w: сервер аккаунта не назначен пользователю", ErrForbidden)
		}
	}
	return p, nil
}

// UpdateDetails изменяет gamertag и флаги аккаунта. Доступ — moderator и выше.
// Снимки до и после записываются в журнал действий.
func (s *AccountService) UpdateDetails(ctx context.Context, session *auth.SessionData, p *model.Player) (*model.Player, error) {
	if !s.policy.CanModerate(session.DiscordID, session.AccessLevel) {
		return nil, fmt.Errorf("%w: модерация аккаунтов доступна модераторам и выше", ErrForbidden)
	}
	if p.Gamertag == "" {
		return nil, fmt.Errorf("%w: gamertag не может быть пустым", ErrValidation)
	}

	before, err := s.players.GetByID(ctx, p.ID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if err := s.players.UpdateDetails(ctx, p); err != nil {
		return nil, mapRepoError(err)
	}

	after, err := s.players.GetByID(ctx, p.ID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.audit.Record(ctx, session.DiscordID, "update_account",
		fmt.Sprintf("Изменён аккаунт %s (id %d)", after.Gamertag, after.ID),
		before, after)
	return after, nil
}

// AltGroups возвращает помеченные аккаунты, сгруппированные по device_id,
// с основным (первым непомеченным) аккаунтом устройства.
// Доступ — moderator и выше.
func (s *AccountService) AltGroups(ctx context.Context, session *auth.SessionData, limit, offset int) ([]*model.AltGroup, error) {
	if !s.policy.CanModerate(session.DiscordID, session.AccessLevel) {
		return nil, fmt.Errorf("%w: просмотр альтов доступен модераторам и выше", ErrForbidden)
	}

	flagged, err := s.players.List(ctx, repository.PlayerFilter{OnlyFlagged: true})
	if err != nil {
		return nil, err
	}

	// Группируем по device_id, сохраняя порядок первого появления
	var order []string
	groups := make(map[string]*model.AltGroup)
	for _, p := range flagged {
		g, ok := groups[p.DeviceID]
		if !ok {
			g = &model.AltGroup{DeviceID: p.DeviceID}
			groups[p.DeviceID] = g
			order = append(order, p.DeviceID)
		}
		g.Alts = append(g.Alts, *p)
	}

	// Пагинация по группам, а не по аккаунтам
	if offset >= len(order) {
		return nil, nil
	}
	end := len(order)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	result := make([]*model.AltGroup, 0, end-offset)
	for _, deviceID := range order[offset:end] {
		g := groups[deviceID]
		main, err := s.players.MainAccountByDevice(ctx, deviceID)
		if err == nil {
			g.Main = main
		} else if !isNotFound(err) {
			return nil, err
		}
		result = append(result, g)
	}
	return result, nil
}

// hasExplicitFilter определяет, задан ли конкретный сервер в фильтре.
func hasExplicitFilter(serverFilter string) bool {
	return serverFilter != "" && serverFilter != repository.ServerFilterAll
}

// containsName проверяет вхождение имени сервера в список
// (без учёта регистра и краевых пробелов).
func containsName(names []string, target string) bool {
	for _, name := range names {
		if normalizeName(name) == normalizeName(target) {
			return true
		}
	}
	return false
}
