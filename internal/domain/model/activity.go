package model

import "time"

// ActivityLogEntry — запись журнала действий (append-only).
// Хранится в таблице activity_logs.
type ActivityLogEntry struct {
	// ID — идентификатор записи
	ID int64
	// UserID — Discord ID инициатора
	UserID string
	// Action — тип действия (update_server, add_user, ...)
	Action string
	// Details — человекочитаемое описание изменения
	Details string
	// BeforeState — JSON-снимок состояния до изменения (может быть пустым)
	BeforeState string
	// AfterState — JSON-снимок состояния после изменения (может быть пустым)
	AfterState string
	// Timestamp — момент записи (назначается базой данных)
	Timestamp time.Time
}
