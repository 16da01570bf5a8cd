// fakes_test.go — фейковые репозитории для unit-тестов сервисного слоя.
package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dayzadb/adb-dashboard/internal/domain/model"
	"github.com/dayzadb/adb-dashboard/internal/domain/rbac"
	"github.com/dayzadb/adb-dashboard/internal/repository"
	"github.com/dayzadb/adb-dashboard/internal/ui/auth"
)

// Discord ID владельца бота в тестах.
const testOwnerID = "100000000000000001"

// testLogger — логгер, не пишущий в вывод тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testSession создаёт сессию с указанной ролью.
func testSession(discordID, role string) *auth.SessionData {
	return auth.NewSession(discordID, "tester", role)
}

// testPolicy — политика с владельцем testOwnerID.
func testPolicy() *rbac.Policy {
	return rbac.NewPolicy(testOwnerID)
}

// --- fakeActivityRepo ---

type fakeActivityRepo struct {
	entries   []*model.ActivityLogEntry
	insertErr error
}

func (r *fakeActivityRepo) Insert(ctx context.Context, entry *model.ActivityLogEntry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	entry.ID = int64(len(r.entries) + 1)
	entry.Timestamp = time.Now()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeActivityRepo) List(ctx context.Context, limit int) ([]*model.ActivityLogEntry, error) {
	// Новые первыми
	result := make([]*model.ActivityLogEntry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		result = append(result, r.entries[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// newTestAudit создаёт сервис журнала поверх фейкового репозитория.
func newTestAudit(repo *fakeActivityRepo) *ActivityLogService {
	return NewActivityLogService(repo, testPolicy(), testLogger())
}

// --- fakeUserRepo ---

type fakeUserRepo struct {
	users map[string]*model.UserAccess
}

func newFakeUserRepo(users ...*model.UserAccess) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*model.UserAccess)}
	for i, ua := range users {
		ua.ID = int64(i + 1)
		r.users[ua.DiscordID] = ua
	}
	return r
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*model.UserAccess, error) {
	result := make([]*model.UserAccess, 0, len(r.users))
	for _, ua := range r.users {
		result = append(result, ua)
	}
	return result, nil
}

func (r *fakeUserRepo) GetByDiscordID(ctx context.Context, discordID string) (*model.UserAccess, error) {
	ua, ok := r.users[discordID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *ua
	return &copied, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, ua *model.UserAccess) error {
	if _, ok := r.users[ua.DiscordID]; ok {
		return repository.ErrConflict
	}
	ua.ID = int64(len(r.users) + 1)
	r.users[ua.DiscordID] = ua
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, ua *model.UserAccess) error {
	existing, ok := r.users[ua.DiscordID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Username = ua.Username
	existing.AccessLevel = ua.AccessLevel
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, discordID string) error {
	if _, ok := r.users[discordID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, discordID)
	return nil
}

func (r *fakeUserRepo) AssignServers(ctx context.Context, discordID string, servers []string) error {
	ua, ok := r.users[discordID]
	if !ok {
		return repository.ErrNotFound
	}
	ua.Servers = servers
	return nil
}

func (r *fakeUserRepo) AssignedServers(ctx context.Context, discordID string) ([]string, error) {
	ua, ok := r.users[discordID]
	if !ok {
		return nil, nil
	}
	return ua.Servers, nil
}

// --- fakePlayerRepo ---

type fakePlayerRepo struct {
	players []*model.Player
	// statsFilter запоминает фильтр последнего вызова Stats
	statsFilter string
}

func (r *fakePlayerRepo) List(ctx context.Context, filter repository.PlayerFilter) ([]*model.Player, error) {
	var result []*model.Player
	for _, p := range r.players {
		if filter.OnlyFlagged && !p.AltFlag {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, id int64) (*model.Player, error) {
	for _, p := range r.players {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePlayerRepo) UpdateDetails(ctx context.Context, p *model.Player) error {
	for _, existing := range r.players {
		if existing.ID == p.ID {
			existing.Gamertag = p.Gamertag
			existing.AltFlag = p.AltFlag
			existing.Watchlisted = p.Watchlisted
			existing.Whitelist = p.Whitelist
			existing.MultipleDevices = p.MultipleDevices
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakePlayerRepo) MainAccountByDevice(ctx context.Context, deviceID string) (*model.Player, error) {
	for _, p := range r.players {
		if p.DeviceID == deviceID && !p.AltFlag {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePlayerRepo) Stats(ctx context.Context, serverFilter string) (*model.PlayerStats, error) {
	r.statsFilter = serverFilter
	return &model.PlayerStats{Total: int64(len(r.players))}, nil
}

func (r *fakePlayerRepo) Trend(ctx context.Context, serverFilter string) ([]model.TrendPoint, error) {
	r.statsFilter = serverFilter
	return nil, nil
}

func (r *fakePlayerRepo) RenameServer(ctx context.Context, oldName, newName string) (int64, error) {
	var n int64
	for _, p := range r.players {
		if p.ServerName == oldName {
			p.ServerName = newName
			n++
		}
	}
	return n, nil
}

// --- fakeConfigRepo ---

type fakeConfigRepo struct {
	configs []*model.GuildConfig
}

func (r *fakeConfigRepo) List(ctx context.Context) ([]*model.GuildConfig, error) {
	return r.configs, nil
}

func (r *fakeConfigRepo) GetByID(ctx context.Context, id int64) (*model.GuildConfig, error) {
	for _, cfg := range r.configs {
		if cfg.ID == id {
			copied := *cfg
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeConfigRepo) ServerNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(r.configs))
	for _, cfg := range r.configs {
		names = append(names, cfg.ServerName)
	}
	return names, nil
}

func (r *fakeConfigRepo) Update(ctx context.Context, cfg *model.GuildConfig) error {
	for _, existing := range r.configs {
		if existing.ID == cfg.ID {
			*existing = *cfg
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeConfigRepo) UpdateWithRename(ctx context.Context, cfg *model.GuildConfig, oldName string) (int64, error) {
	if err := r.Update(ctx, cfg); err != nil {
		return 0, err
	}
	// Перенос игроков имитируется фиксированным числом
	return 3, nil
}

// --- fakeFeedbackRepo ---

type fakeFeedbackRepo struct {
	items []*model.Feedback
}

func (r *fakeFeedbackRepo) Insert(ctx context.Context, fb *model.Feedback) error {
	fb.ID = int64(len(r.items) + 1)
	fb.Timestamp = time.Now()
	r.items = append(r.items, fb)
	return nil
}

func (r *fakeFeedbackRepo) List(ctx context.Context, limit int) ([]*model.Feedback, error) {
	return r.items, nil
}
