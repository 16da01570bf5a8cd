// Пакет model — доменные модели ADB Dashboard.
package model

import "time"

// Player — аккаунт игрока, зарегистрированный ботом на сервере DayZ.
// Хранится в таблице players.
type Player struct {
	// ID — идентификатор записи
	ID int64
	// Gamertag — игровое имя
	Gamertag string
	// GamertagID — внешний идентификатор gamertag-а (XUID)
	GamertagID string
	// DeviceID — идентификатор устройства; общий device_id
	// у нескольких аккаунтов — признак альтов
	DeviceID string
	// ServerName — сервер, на котором зарегистрирован аккаунт
	ServerName string
	// AltFlag — аккаунт помечен как альт
	AltFlag bool
	// Watchlisted — аккаунт в списке наблюдения
	Watchlisted bool
	// Whitelist — аккаунт в белом списке
	Whitelist bool
	// MultipleDevices — аккаунт замечен с нескольких устройств
	MultipleDevices bool
	// FirstSeen — первая регистрация
	FirstSeen time.Time
	// LastSeen — последняя активность
	LastSeen time.Time
}

// PlayerStats — агрегированная статистика по игрокам.
type PlayerStats struct {
	// Total — всего аккаунтов
	Total int64
	// Alts — помечено как альты
	Alts int64
	// Watchlisted — в списке наблюдения
	Watchlisted int64
	// Whitelisted — в белом списке
	Whitelisted int64
	// MultiDevice — с нескольких устройств
	MultiDevice int64
}

// TrendPoint — точка графика динамики регистраций: число за календарный день.
type TrendPoint struct {
	// Date — календарная дата (UTC, без времени)
	Date time.Time
	// Count — число регистраций за день
	Count int64
}

// AltGroup — группа аккаунтов с общим device_id.
type AltGroup struct {
	// DeviceID — общий идентификатор устройства
	DeviceID string
	// Main — основной аккаунт (первый непомеченный на устройстве), nil если все помечены
	Main *Player
	// Alts — помеченные аккаунты группы
	Alts []Player
}
