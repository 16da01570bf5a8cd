// Пакет rbac — иерархия ролей и политика авторизации ADB Dashboard.
// Правила: роли упорядочены по рангу; изменять чужие записи можно только
// при строго большем ранге; владелец бота обходит все проверки.
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleUser       = "user"
	RoleModerator  = "moderator"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

// roleRank — ранг роли для сравнения.
// Чем выше ранг, тем больше привилегий.
var roleRank = map[string]int{
	RoleUser:       1,
	RoleModerator:  2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// Policy — политика авторизации. Хранит Discord ID владельца бота,
// который обходит все проверки ролей.
type Policy struct {
	ownerID string
}

// NewPolicy создаёт политику с указанным Discord ID владельца бота.
func NewPolicy(ownerID string) *Policy {
	return &Policy{ownerID: ownerID}
}

// IsOwner проверяет, является ли Discord ID владельцем бота.
func (p *Policy) IsOwner(discordID string) bool {
	return p.ownerID != "" && discordID == p.ownerID
}

// CanViewAll — доступ ко всем серверам: moderator и выше, либо владелец.
// Роль user видит только назначенные серверы.
func (p *Policy) CanViewAll(discordID, role string) bool {
	if p.IsOwner(discordID) {
		return true
	}
	return Rank(role) >= roleRank[RoleModerator]
}

// CanModerate — модерация аккаунтов игроков и чтение журнала действий:
// moderator и выше, либо владелец.
func (p *Policy) CanModerate(discordID, role string) bool {
	if p.IsOwner(discordID) {
		return true
	}
	return Rank(role) >= roleRank[RoleModerator]
}

// CanManageUsers — управление пользователями и их правами:
// admin и выше, либо владелец.
func (p *Policy) CanManageUsers(discordID, role string) bool {
	if p.IsOwner(discordID) {
		return true
	}
	return Rank(role) >= roleRank[RoleAdmin]
}

// CanModify проверяет, может ли актор изменять запись с ролью targetRole.
// Владелец может всё; иначе требуется строго больший ранг —
// равный или больший ранг цели запрещает изменение.
func (p *Policy) CanModify(discordID, actorRole, targetRole string) bool {
	if p.IsOwner(discordID) {
		return true
	}
	return Rank(actorRole) > Rank(targetRole)
}

// CanGrant проверяет, может ли актор выдать роль role.
// Владелец может выдать любую; иначе выдаваемая роль должна быть
// строго ниже собственной.
func (p *Policy) CanGrant(discordID, actorRole, role string) bool {
	if p.IsOwner(discordID) {
		return true
	}
	return Rank(role) < Rank(actorRole)
}

// Rank возвращает ранг роли. Неизвестная роль имеет ранг 0 —
// ниже любой допустимой.
func Rank(role string) int {
	return roleRank[role]
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// Roles возвращает все допустимые роли в порядке возрастания привилегий.
func Roles() []string {
	return []string{RoleUser, RoleModerator, RoleAdmin, RoleSuperAdmin}
}
