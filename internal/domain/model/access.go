package model

// UserAccess — пользователь дашборда и его уровень доступа.
// Хранится в таблице user_access; discord_id уникален.
type UserAccess struct {
	// ID — идентификатор записи
	ID int64
	// DiscordID — Discord ID пользователя
	DiscordID string
	// Username — кэшированное имя пользователя Discord
	Username string
	// AccessLevel — уровень доступа (user, moderator, admin, super-admin)
	AccessLevel string
	// Servers — имена серверов, назначенных пользователю
	Servers []string
}
