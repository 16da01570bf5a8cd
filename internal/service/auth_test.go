package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dayzadb/adb-dashboard/internal/domain/model"
)

// allowListFunc — AllowList из функции.
type allowListFunc func(string) bool

func (f allowListFunc) IsAllowed(discordID string) bool { return f(discordID) }

// openAllowList — allow-list без ограничений.
var openAllowList = allowListFunc(func(string) bool { return true })

func TestResolveAccess(t *testing.T) {
	repo := newFakeUserRepo(
		&model.UserAccess{DiscordID: "200000000000000001", Username: "mod", AccessLevel: "moderator"},
		&model.UserAccess{DiscordID: testOwnerID, Username: "owner", AccessLevel: "admin"},
	)

	tests := []struct {
		name      string
		discordID string
		allowList AllowList
		want      string
		wantErr   error
	}{
		{
			"роль из user_access",
			"200000000000000001", openAllowList,
			"moderator", nil,
		},
		{
			"допущенный неизвестный получает user",
			"200000000000000099", openAllowList,
			"user", nil,
		},
		{
			"не в allow-list — отказ",
			"200000000000000099",
			allowListFunc(func(id string) bool { return id == "300000000000000001" }),
			"", ErrForbidden,
		},
		{
			"владелец допускается мимо allow-list, роль из записи",
			testOwnerID,
			allowListFunc(func(string) bool { return false }),
			"admin", nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(repo, testPolicy(), tt.allowList, testLogger())

			got, err := svc.ResolveAccess(context.Background(), tt.discordID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ResolveAccess() = %v, ожидается %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveAccess() ошибка: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveAccess() = %q, ожидается %q", got, tt.want)
			}
		})
	}
}

func TestResolveAccess_OwnerWithoutRecord(t *testing.T) {
	// Владелец без записи в user_access получает super-admin
	svc := NewAuthService(newFakeUserRepo(), testPolicy(),
		allowListFunc(func(string) bool { return false }), testLogger())

	got, err := svc.ResolveAccess(context.Background(), testOwnerID)
	if err != nil {
		t.Fatalf("ResolveAccess() ошибка: %v", err)
	}
	if got != "super-admin" {
		t.Errorf("ResolveAccess() владельца без записи = %q, ожидается super-admin", got)
	}
}
