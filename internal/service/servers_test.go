package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dayzadb/adb-dashboard/internal/domain/model"
)

// newTestServerService создаёт сервис конфигураций поверх фейков.
func newTestServerService(configs *fakeConfigRepo, users *fakeUserRepo) (*ServerService, *fakeActivityRepo) {
	audit := &fakeActivityRepo{}
	svc := NewServerService(configs, users, newTestAudit(audit), testPolicy(), testLogger())
	return svc, audit
}

func defaultConfigs() *fakeConfigRepo {
	return &fakeConfigRepo{configs: []*model.GuildConfig{
		{ID: 1, GuildID: "500000000000000001", GuildName: "DayZ RU", ServerName: "Chernarus"},
		{ID: 2, GuildID: "500000000000000002", GuildName: "DayZ EU", ServerName: "Livonia"},
	}}
}

func TestServersList_ScopedForUser(t *testing.T) {
	users := newFakeUserRepo(
		&model.UserAccess{DiscordID: "200000000000000001", AccessLevel: "user", Servers: []string{"chernarus"}},
	)
	svc, _ := newTestServerService(defaultConfigs(), users)

	// moderator видит все конфигурации
	all, err := svc.List(context.Background(), testSession("300000000000000001", "moderator"))
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List() для moderator вернул %d, ожидается 2", len(all))
	}

	// user видит только назначенные (сопоставление без учёта регистра)
	own, err := svc.List(context.Background(), testSession("200000000000000001", "user"))
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(own) != 1 || own[0].ServerName != "Chernarus" {
		t.Errorf("List() для user = %v, ожидается только Chernarus", own)
	}
}

func TestServersGet_ForbiddenOutsideScope(t *testing.T) {
	users := newFakeUserRepo(
		&model.UserAccess{DiscordID: "200000000000000001", AccessLevel: "user", Servers: []string{"Chernarus"}},
	)
	svc, _ := newTestServerService(defaultConfigs(), users)
	session := testSession("200000000000000001", "user")

	if _, err := svc.Get(context.Background(), session, 1); err != nil {
		t.Errorf("Get() назначенного сервера ошибка: %v", err)
	}
	if _, err := svc.Get(context.Background(), session, 2); !errors.Is(err, ErrForbidden) {
		t.Errorf("Get() чужого сервера = %v, ожидается ErrForbidden", err)
	}
	if _, err := svc.Get(context.Background(), session, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() несуществующего = %v, ожидается ErrNotFound", err)
	}
}

func TestServersUpdate_RequiresAdmin(t *testing.T) {
	svc, _ := newTestServerService(defaultConfigs(), newFakeUserRepo())

	cfg := &model.GuildConfig{ID: 1, ServerName: "Chernarus"}
	for _, role := range []string{"user", "moderator"} {
		if _, err := svc.Update(context.Background(), testSession("200000000000000001", role), cfg); !errors.Is(err, ErrForbidden) {
			t.Errorf("Update() для %s = %v, ожидается ErrForbidden", role, err)
		}
	}
}

func TestServersUpdate_EmptyName(t *testing.T) {
	svc, _ := newTestServerService(defaultConfigs(), newFakeUserRepo())

	cfg := &model.GuildConfig{ID: 1, ServerName: "   "}
	if _, err := svc.Update(context.Background(), testSession("300000000000000001", "admin"), cfg); !errors.Is(err, ErrValidation) {
		t.Errorf("Update() с пустым именем = %v, ожидается ErrValidation", err)
	}
}

func TestServersUpdate_RenameRecordedInAudit(t *testing.T) {
	configs := defaultConfigs()
	svc, audit := newTestServerService(configs, newFakeUserRepo())
	admin := testSession("300000000000000001", "admin")

	// Обновление без переименования
	if _, err := svc.Update(context.Background(), admin,
		&model.GuildConfig{ID: 1, GuildID: "500000000000000001", GuildName: "DayZ RU", ServerName: "Chernarus", AlertChannelID: "600000000000000001"}); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	if len(audit.entries) != 1 || strings.Contains(audit.entries[0].Details, "переименован") {
		t.Errorf("обновление без смены имени не должно отмечаться как переименование: %+v", audit.entries)
	}

	// Переименование: детали содержат оба имени и число перенесённых игроков
	if _, err := svc.Update(context.Background(), admin,
		&model.GuildConfig{ID: 1, GuildID: "500000000000000001", GuildName: "DayZ RU", ServerName: "Namalsk"}); err != nil {
		t.Fatalf("Update() с переименованием ошибка: %v", err)
	}
	last := audit.entries[len(audit.entries)-1]
	if !strings.Contains(last.Details, "Chernarus") || !strings.Contains(last.Details, "Namalsk") {
		t.Errorf("детали переименования = %q, ожидаются оба имени", last.Details)
	}

	// Смена только регистра/пробелов — не переименование
	if _, err := svc.Update(context.Background(), admin,
		&model.GuildConfig{ID: 2, GuildID: "500000000000000002", GuildName: "DayZ EU", ServerName: " LIVONIA "}); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	last = audit.entries[len(audit.entries)-1]
	if strings.Contains(last.Details, "переименован") {
		t.Error("смена регистра имени не должна считаться переименованием")
	}
}
