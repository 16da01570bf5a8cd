// handler.go — общие вспомогательные функции обработчиков API.
// Обработчики тонкие: разбор запроса, вызов сервисного слоя,
// трансляция ошибок в единый JSON-формат.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	apierrors "github.com/dayzadb/adb-dashboard/internal/api/errors"
	"github.com/dayzadb/adb-dashboard/internal/discord"
	"github.com/dayzadb/adb-dashboard/internal/service"
)

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON разбирает тело запроса в dst.
// Неизвестные поля — ошибка: защита от опечаток в именах полей.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseID разбирает числовой идентификатор из параметра пути.
func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// parseLimit разбирает параметр limit из query string.
// Отсутствие или некорректное значение — значение по умолчанию.
func parseLimit(r *http.Request, def, max int) int {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// parseOffset разбирает параметр offset из query string.
func parseOffset(r *http.Request) int {
	s := r.URL.Query().Get("offset")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// writeServiceError транслирует ошибку сервисного слоя в HTTP-ответ.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidRole):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, discord.ErrUpstream):
		apierrors.DiscordUnavailable(w, err.Error())
	default:
		apierrors.InternalError(w, "внутренняя ошибка сервера")
	}
}
