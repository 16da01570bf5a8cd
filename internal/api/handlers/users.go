// users.go — обработчики управления пользователями дашборда.
// GET /api/v1/users — список пользователей (admin+)
// POST /api/v1/users — добавление пользователя
// PUT /api/v1/users/{discordID} — изменение роли/имени
// DELETE /api/v1/users/{discordID} — удаление с каскадом привязок
// PUT /api/v1/users/{discordID}/servers — замена привязок целиком
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/dayzadb/adb-dashboard/internal/api/errors"
	"github.com/dayzadb/adb-dashboard/internal/domain/model"
	"github.com/dayzadb/adb-dashboard/internal/service"
	"github.com/dayzadb/adb-dashboard/internal/ui/middleware"
)

// UsersHandler — обработчики управления пользователями.
type UsersHandler struct {
	users  *service.UserAccessService
	logger *slog.Logger
}

// NewUsersHandler создаёт обработчик управления пользователями.
func NewUsersHandler(users *service.UserAccessService, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		users:  users,
		logger: logger.With(slog.String("component", "users_handler")),
	}
}

// userResponse — пользователь дашборда в ответе API.
type userResponse struct {
	ID          int64    `json:"id"`
	DiscordID   string   `json:"discord_id"`
	Username    string   `json:"username"`
	AccessLevel string   `json:"access_level"`
	Servers     []string `json:"servers"`
}

// userRequest — тело запроса добавления/изменения пользователя.
type userRequest struct {
	DiscordID   string `json:"discord_id"`
	Username    string `json:"username"`
	AccessLevel string `json:"access_level"`
}

// assignServersRequest — тело запроса замены привязок.
type assignServersRequest struct {
	Servers []string `json:"servers"`
}

func userToResponse(ua *model.UserAccess) userResponse {
	servers := ua.Servers
	if servers == nil {
		servers = []string{}
	}
	return userResponse{
		ID:          ua.ID,
		DiscordID:   ua.DiscordID,
		Username:    ua.Username,
		AccessLevel: ua.AccessLevel,
		Servers:     servers,
	}
}

// ListUsers — все пользователи дашборда (admin+).
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	users, err := h.users.List(r.Context(), session)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := make([]userResponse, 0, len(users))
	for _, ua := range users {
		result = append(result, userToResponse(ua))
	}
	writeJSON(w, http.StatusOK, result)
}

// AddUser — добавление пользователя с уровнем доступа.
func (h *UsersHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса: "+err.Error())
		return
	}

	ua, err := h.users.Add(r.Context(), session, &model.UserAccess{
		DiscordID:   req.DiscordID,
		Username:    req.Username,
		AccessLevel: req.AccessLevel,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userToResponse(ua))
}

// UpdateUser — изменение имени и уровня доступа пользователя.
func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса: "+err.Error())
		return
	}

	ua, err := h.users.Update(r.Context(), session, &model.UserAccess{
		DiscordID:   chi.URLParam(r, "discordID"),
		Username:    req.Username,
		AccessLevel: req.AccessLevel,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(ua))
}

// DeleteUser — удаление пользователя вместе с привязками.
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	if err := h.users.Remove(r.Context(), session, chi.URLParam(r, "discordID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignServers — замена привязок пользователя к серверам целиком.
func (h *UsersHandler) AssignServers(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	var req assignServersRequest
	if err := decodeJSON(r, &req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса: "+err.Error())
		return
	}

	ua, err := h.users.AssignServers(r.Context(), session, chi.URLParam(r, "discordID"), req.Servers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(ua))
}
