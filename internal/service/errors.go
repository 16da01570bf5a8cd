// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"

	"github.com/dayzadb/adb-dashboard/internal/repository"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrForbidden — недостаточно прав для операции.
	// Проверка выполняется до любого обращения к базе данных.
	ErrForbidden = errors.New("недостаточно прав")
	// ErrInvalidRole — некорректная роль.
	ErrInvalidRole = errors.New("некорректная роль: допустимые значения — user, moderator, admin, super-admin")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
)

// isNotFound проверяет ошибку «не найдено» любого слоя.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}
