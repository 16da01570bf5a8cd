package model

// GuildConfig — конфигурация сервера DayZ, привязанного к Discord-гильдии.
// Хранится в таблице guild_configs; server_name уникален.
type GuildConfig struct {
	// ID — идентификатор записи
	ID int64
	// GuildID — Discord ID гильдии
	GuildID string
	// GuildName — имя гильдии
	GuildName string
	// ServerName — отображаемое имя сервера (уникальное)
	ServerName string
	// NitradoServiceID — идентификатор сервиса в Nitrado
	NitradoServiceID string
	// NitradoToken — API-токен Nitrado
	NitradoToken string
	// AlertChannelID — Discord-канал для оповещений
	AlertChannelID string
	// AdminRoleID — Discord-роль администраторов сервера
	AdminRoleID string
}
