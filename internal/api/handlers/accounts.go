// accounts.go — обработчики аккаунтов игроков.
// GET /api/v1/accounts — список/поиск аккаунтов
// GET /api/v1/accounts/{id} — один аккаунт
// PUT /api/v1/accounts/{id} — изменение gamertag и флагов (moderator+)
// GET /api/v1/accounts/alt-groups — группы альтов по device_id (moderator+)
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/dayzadb/adb-dashboard/internal/api/errors"
	"github.com/dayzadb/adb-dashboard/internal/domain/model"
	"github.com/dayzadb/adb-dashboard/internal/repository"
	"github.com/dayzadb/adb-dashboard/internal/service"
	"github.com/dayzadb/adb-dashboard/internal/ui/middleware"
)

// AccountsHandler — обработчики аккаунтов игроков.
type AccountsHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAccountsHandler создаёт обработчик аккаунтов.
func NewAccountsHandler(accounts *service.AccountService, logger *slog.Logger) *AccountsHandler {
	return &AccountsHandler{
		accounts: accounts,
		logger:   logger.With(slog.String("component", "accounts_handler")),
	}
}

// playerResponse — аккаунт игрока в ответе API.
type playerResponse struct {
	ID              int64  `json:"id"`
	Gamertag        string `json:"gamertag"`
	GamertagID      string `json:"gamertag_id"`
	DeviceID        string `json:"device_id"`
	ServerName      string `json:"server_name"`
	AltFlag         bool   `json:"alt_flag"`
	Watchlisted     bool   `json:"watchlisted"`
	Whitelist       bool   `json:"whitelist"`
	MultipleDevices bool   `json:"multiple_devices"`
	FirstSeen       string `json:"first_seen"`
	LastSeen        string `json:"last_seen"`
}

// updateAccountRequest — тело запроса изменения аккаунта.
type updateAccountRequest struct {
	Gamertag        string `json:"gamertag"`
	AltFlag         bool   `json:"alt_flag"`
	Watchlisted     bool   `json:"watchlisted"`
	Whitelist       bool   `json:"whitelist"`
	MultipleDevices bool   `json:"multiple_devices"`
}

// altGroupResponse — группа аккаунтов с общим device_id.
type altGroupResponse struct {
	DeviceID string           `json:"device_id"`
	Main     *playerResponse  `json:"main,omitempty"`
	Alts     []playerResponse `json:"alts"`
}

func playerToResponse(p *model.Player) playerResponse {
	return playerResponse{
		ID:              p.ID,
		Gamertag:        p.Gamertag,
		GamertagID:      p.GamertagID,
		DeviceID:        p.DeviceID,
		ServerName:      p.ServerName,
		AltFlag:         p.AltFlag,
		Watchlisted:     p.Watchlisted,
		Whitelist:       p.Whitelist,
		MultipleDevices: p.MultipleDevices,
		FirstSeen:       p.FirstSeen.UTC().Format(time.RFC3339),
		LastSeen:        p.LastSeen.UTC().Format(time.RFC3339),
	}
}

// ListAccounts — аккаунты по фильтру (server, search, flagged, limit, offset).
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	q := r.URL.Query()
	filter := repository.PlayerFilter{
		ServerName:  q.Get("server"),
		Search:      q.Get("search"),
		OnlyFlagged: q.Get("flagged") == "true",
		Limit:       parseLimit(r, 100, 1000),
		Offset:      parseOffset(r),
	}

	players, err := h.accounts.List(r.Context(), session, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := make([]playerResponse, 0, len(players))
	for _, p := range players {
		result = append(result, playerToResponse(p))
	}
	writeJSON(w, http.StatusOK, result)
}

// GetAccount — один аккаунт по идентификатору.
func (h *AccountsHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.ValidationError(w, "некорректный идентификатор аккаунта")
		return
	}

	p, err := h.accounts.Get(r.Context(), session, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playerToResponse(p))
}

// UpdateAccount — изменение gamertag и флагов (moderator+).
func (h *AccountsHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.ValidationError(w, "некорректный идентификатор аккаунта")
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса: "+err.Error())
		return
	}

	p, err := h.accounts.UpdateDetails(r.Context(), session, &model.Player{
		ID:              id,
		Gamertag:        req.Gamertag,
		AltFlag:         req.AltFlag,
		Watchlisted:     req.Watchlisted,
		Whitelist:       req.Whitelist,
		MultipleDevices: req.MultipleDevices,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playerToResponse(p))
}

// ListAltGroups — группы альтов по device_id (moderator+).
func (h *AccountsHandler) ListAltGroups(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	groups, err := h.accounts.AltGroups(r.Context(), session, parseLimit(r, 20, 100), parseOffset(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := make([]altGroupResponse, 0, len(groups))
	for _, g := range groups {
		resp := altGroupResponse{
			DeviceID: g.DeviceID,
			Alts:     make([]playerResponse, 0, len(g.Alts)),
		}
		if g.Main != nil {
			main := playerToResponse(g.Main)
			resp.Main = &main
		}
		for i := range g.Alts {
			resp.Alts = append(resp.Alts, playerToResponse(&g.Alts[i]))
		}
		result = append(result, resp)
	}
	writeJSON(w, http.StatusOK, result)
}
