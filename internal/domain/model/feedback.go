package model

import "time"

// Feedback — обращение пользователя дашборда.
// Хранится в таблице user_feedback.
type Feedback struct {
	// ID — идентификатор записи
	ID int64
	// UserID — Discord ID автора
	UserID string
	// Subject — тема обращения
	Subject string
	// Message — текст обращения
	Message string
	// Category — категория (general, bug, feature, ...)
	Category string
	// Priority — приоритет (low, normal, high)
	Priority string
	// Timestamp — момент отправки
	Timestamp time.Time
}
