// servers.go — обработчики конфигураций серверов.
// GET /api/v1/servers — список видимых конфигураций
// GET /api/v1/servers/names — имена видимых серверов (для селекторов)
// GET /api/v1/servers/{id} — одна конфигурация
// PUT /api/v1/servers/{id} — обновление (admin+, с каскадным переименованием)
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

// ServersHandler — обработчики конфигураций серверов.
type ServersHandler struct {
	servers *service.ServerService
	logger  *slog.Logger
}

// NewServersHandler создаёт обработчик конфигураций серверов.
func NewServersHandler(servers *service.ServerService, logger *slog.Logger) *ServersHandler {
	return &ServersHandler{
		servers: servers,
		logger:  logger.With(slog.String("component", "servers_handler")),
	}
}

// serverConfigResponse — конфигурация сервера в ответе API.
// Nitrado token наружу не отдаётся.
type serverConfigResponse struct {
	ID               int64  `json:"id"`
	GuildID          string `json:"guild_id"`
	GuildName        string `json:"guild_name"`
	ServerName       string `json:"server_name"`
	NitradoServiceID string `json:"nitrado_service_id"`
	AlertChannelID   string `json:"alert_channel_id"`
	AdminRoleID      string `json:"admin_role_id"`
}

// serverConfigRequest — тело запроса обновления конфигурации.
type serverConfigRequest struct {
	GuildID          string `json:"guild_id"`
	GuildName        string `json:"guild_name"`
	ServerName       string `json:"server_name"`
	NitradoServiceID string `json:"nitrado_service_id"`
	NitradoToken     string `json:"nitrado_token"`
	AlertChannelID   string `json:"alert_channel_id"`
	AdminRoleID      string `json:"admin_role_id"`
}

func serverToResponse(cfg *model.GuildConfig) serverConfigResponse {
	return serverConfigResponse{
		ID:               cfg.ID,
		GuildID:          cfg.GuildID,
		GuildName:        cfg.GuildName,
		ServerName:       cfg.ServerName,
		NitradoServiceID: cfg.NitradoServiceID,
		AlertChannelID:   cfg.AlertChannelID,
		AdminRoleID:      cfg.AdminRoleID,
	}
}

// ListServers — конфигурации серверов, видимые сессии.
func (h *ServersHandler) ListServers(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	configs, err := h.servers.List(r.Context(), session)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := make([]serverConfigResponse, 0, len(configs))
	for _, cfg := range configs {
		result = append(result, serverToResponse(cfg))
	}
	writeJSON(w, http.StatusOK, result)
}

// ListServerNames — имена серверов для селекторов фронтенда.
func (h *ServersHandler) ListServerNames(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	names, err := h.servers.ServerNames(r.Context(), session)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// GetServer — одна конфигурация по идентификатору.
func (h *ServersHandler) GetServer(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.ValidationError(w, "некорректный идентификатор сервера")
		return
	}

	cfg, err := h.servers.Get(r.Context(), session, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serverToResponse(cfg))
}

// UpdateServer — обновление конфигурации (admin+).
// Смена server_name каскадно переносит игроков в той же транзакции.
func (h *ServersHandler) UpdateServer(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.ValidationError(w, "некорректный идентификатор сервера")
		return
	}

	var req serverConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса: "+err.Error())
		return
	}

	cfg := &model.GuildConfig{
		ID:               id,
		GuildID:          req.GuildID,
		GuildName:        req.GuildName,
		ServerName:       req.ServerName,
		NitradoServiceID: req.NitradoServiceID,
		NitradoToken:     req.NitradoToken,
		AlertChannelID:   req.AlertChannelID,
		AdminRoleID:      req.AdminRoleID,
	}

	updated, err := h.servers.Update(r.Context(), session, cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serverToResponse(updated))
}
