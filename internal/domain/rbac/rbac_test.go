package rbac

import (
	"testing"
)

const ownerID = "100000000000000001"

func TestCanModify(t *testing.T) {
	p := NewPolicy(ownerID)

	tests := []struct {
		name       string
		discordID  string
		actorRole  string
		targetRole string
		want       bool
	}{
		{
			name:       "admin изменяет moderator — строго выше, разрешено",
			discordID:  "2", actorRole: RoleAdmin, targetRole: RoleModerator,
			want: true,
		},
		{
			name:       "admin изменяет admin — равный ранг запрещён",
			discordID:  "2", actorRole: RoleAdmin, targetRole: RoleAdmin,
			want: false,
		},
		{
			name:       "admin изменяет super-admin — выше себя запрещено",
			discordID:  "2", actorRole: RoleAdmin, targetRole: RoleSuperAdmin,
			want: false,
		},
		{
			name:       "super-admin изменяет admin",
			discordID:  "2", actorRole: RoleSuperAdmin, targetRole: RoleAdmin,
			want: true,
		},
		{
			name:       "super-admin изменяет super-admin — равный ранг запрещён",
			discordID:  "2", actorRole: RoleSuperAdmin, targetRole: RoleSuperAdmin,
			want: false,
		},
		{
			name:       "moderator изменяет user",
			discordID:  "2", actorRole: RoleModerator, targetRole: RoleUser,
			want: true,
		},
		{
			name:       "user не изменяет никого",
			discordID:  "2", actorRole: RoleUser, targetRole: RoleUser,
			want: false,
		},
		{
			name:       "владелец изменяет super-admin — обход иерархии",
			discordID:  ownerID, actorRole: RoleUser, targetRole: RoleSuperAdmin,
			want: true,
		},
		{
			name:       "неизвестная роль актора — ранг 0, запрещено",
			discordID:  "2", actorRole: "ghost", targetRole: RoleUser,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.CanModify(tt.discordID, tt.actorRole, tt.targetRole)
			if got != tt.want {
				t.Errorf("CanModify(%q, %q, %q) = %v, хотели %v",
					tt.discordID, tt.actorRole, tt.targetRole, got, tt.want)
			}
		})
	}
}

func TestCanGrant(t *testing.T) {
	p := NewPolicy(ownerID)

	tests := []struct {
		name      string
		discordID string
		actorRole string
		grant     string
		want      bool
	}{
		{name: "admin выдаёт moderator", discordID: "2", actorRole: RoleAdmin, grant: RoleModerator, want: true},
		{name: "admin выдаёт admin — равная роль запрещена", discordID: "2", actorRole: RoleAdmin, grant: RoleAdmin, want: false},
		{name: "admin выдаёт super-admin — выше себя запрещено", discordID: "2", actorRole: RoleAdmin, grant: RoleSuperAdmin, want: false},
		{name: "super-admin выдаёт admin", discordID: "2", actorRole: RoleSuperAdmin, grant: RoleAdmin, want: true},
		{name: "владелец выдаёт super-admin", discordID: ownerID, actorRole: RoleUser, grant: RoleSuperAdmin, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.CanGrant(tt.discordID, tt.actorRole, tt.grant)
			if got != tt.want {
				t.Errorf("CanGrant(%q, %q, %q) = %v, хотели %v",
					tt.discordID, tt.actorRole, tt.grant, got, tt.want)
			}
		})
	}
}

func TestCanViewAll(t *testing.T) {
	p := NewPolicy(ownerID)

	tests := []struct {
		name      string
		discordID string
		role      string
		want      bool
	}{
		{name: "user видит только назначенные серверы", discordID: "2", role: RoleUser, want: false},
		{name: "moderator видит все серверы", discordID: "2", role: RoleModerator, want: true},
		{name: "admin видит все серверы", discordID: "2", role: RoleAdmin, want: true},
		{name: "super-admin видит все серверы", discordID: "2", role: RoleSuperAdmin, want: true},
		{name: "владелец с ролью user видит все серверы", discordID: ownerID, role: RoleUser, want: true},
		{name: "неизвестная роль — доступ ограничен", discordID: "2", role: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.CanViewAll(tt.discordID, tt.role)
			if got != tt.want {
				t.Errorf("CanViewAll(%q, %q) = %v, хотели %v", tt.discordID, tt.role, got, tt.want)
			}
		})
	}
}

func TestCanManageUsers(t *testing.T) {
	p := NewPolicy(ownerID)

	tests := []struct {
		name      string
		discordID string
		role      string
		want      bool
	}{
		{name: "user не управляет пользователями", discordID: "2", role: RoleUser, want: false},
		{name: "moderator не управляет пользователями", discordID: "2", role: RoleModerator, want: false},
		{name: "admin управляет пользователями", discordID: "2", role: RoleAdmin, want: true},
		{name: "super-admin управляет пользователями", discordID: "2", role: RoleSuperAdmin, want: true},
		{name: "владелец управляет независимо от роли", discordID: ownerID, role: RoleUser, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.CanManageUsers(tt.discordID, tt.role)
			if got != tt.want {
				t.Errorf("CanManageUsers(%q, %q) = %v, хотели %v", tt.discordID, tt.role, got, tt.want)
			}
		})
	}
}

func TestIsOwner_EmptyOwnerID(t *testing.T) {
	// Пустой owner ID не должен совпадать с пустым discord ID
	p := NewPolicy("")
	if p.IsOwner("") {
		t.Error("IsOwner(\"\") при пустом owner ID = true, хотели false")
	}
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleUser, true},
		{RoleModerator, true},
		{RoleAdmin, true},
		{RoleSuperAdmin, true},
		{"superadmin", false},
		{"owner", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			got := IsValidRole(tt.role)
			if got != tt.want {
				t.Errorf("IsValidRole(%q) = %v, хотели %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestRank_Ordering(t *testing.T) {
	// Ранги строго возрастают в порядке Roles()
	roles := Roles()
	for i := 1; i < len(roles); i++ {
		if Rank(roles[i-1]) >= Rank(roles[i]) {
			t.Errorf("Rank(%q) = %d должен быть меньше Rank(%q) = %d",
				roles[i-1], Rank(roles[i-1]), roles[i], Rank(roles[i]))
		}
	}
}
