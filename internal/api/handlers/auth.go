// auth.go — обработчики аутентификации через Discord OAuth2.
// GET /auth/login — redirect на страницу согласия Discord (state cookie)
// GET /auth/callback — обмен code на токен, определение роли, установка сессии
// POST /auth/logout — удаление сессии
// GET /api/v1/me — данные текущей сессии
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/dayzadb/adb-dashboard/internal/api/errors"
	"github.com/dayzadb/adb-dashboard/internal/discord"
	"github.com/dayzadb/adb-dashboard/internal/service"
	"github.com/dayzadb/adb-dashboard/internal/ui/auth"
	"github.com/dayzadb/adb-dashboard/internal/ui/middleware"
)

// AuthHandler — обработчики OAuth flow и сессии.
type AuthHandler struct {
	discordClient  *discord.Client
	sessionManager *auth.SessionManager
	authService    *service.AuthService
	// redirectURI — настроенный callback URI; пустой — строится из запроса
	redirectURI string
	logger      *slog.Logger
}

// NewAuthHandler создаёт обработчик аутентификации.
func NewAuthHandler(
	discordClient *discord.Client,
	sessionManager *auth.SessionManager,
	authService *service.AuthService,
	redirectURI string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		discordClient:  discordClient,
		sessionManager: sessionManager,
		authService:    authService,
		redirectURI:    redirectURI,
		logger:         logger.With(slog.String("component", "auth_handler")),
	}
}

// Login — начало OAuth flow: генерирует state, ставит state cookie
// и перенаправляет на страницу согласия Discord.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := discord.GenerateState()
	if err != nil {
		h.logger.Error("Ошибка генерации state", slog.String("error", err.Error()))
		apierrors.InternalError(w, "ошибка начала аутентификации")
		return
	}

	h.sessionManager.SetStateCookie(w, state)
	http.Redirect(w, r, h.discordClient.AuthorizeURL(h.callbackURI(r), state), http.StatusFound)
}

// Callback — завершение OAuth flow: проверка state, обмен code на токен,
// запрос профиля, определение уровня доступа и установка session cookie.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Discord сообщает об отказе пользователя параметром error
	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("OAuth отклонён пользователем", slog.String("error", errParam))
		apierrors.Unauthorized(w, "вход через Discord отменён")
		return
	}

	code := q.Get("code")
	if code == "" {
		apierrors.ValidationError(w, "отсутствует параметр code")
		return
	}
	if !h.sessionManager.VerifyStateCookie(w, r, q.Get("state")) {
		h.logger.Warn("Некорректный state в callback", slog.String("remote_addr", r.RemoteAddr))
		apierrors.Unauthorized(w, "некорректный state параметр")
		return
	}

	token, err := h.discordClient.ExchangeCode(r.Context(), code, h.callbackURI(r))
	if err != nil {
		h.logger.Error("Ошибка обмена code на токен", slog.String("error", err.Error()))
		writeServiceError(w, err)
		return
	}

	user, err := h.discordClient.FetchUser(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("Ошибка запроса профиля Discord", slog.String("error", err.Error()))
		writeServiceError(w, err)
		return
	}

	accessLevel, err := h.authService.ResolveAccess(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	session := auth.NewSession(user.ID, user.DisplayName(), accessLevel)
	if err := h.sessionManager.SetSessionCookie(w, session); err != nil {
		h.logger.Error("Ошибка установки session cookie", slog.String("error", err.Error()))
		apierrors.InternalError(w, "ошибка создания сессии")
		return
	}

	h.logger.Info("Пользователь вошёл в дашборд",
		slog.String("discord_id", user.ID),
		slog.String("username", user.DisplayName()),
		slog.String("access_level", accessLevel),
	)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout — удаление session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessionManager.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// meResponse — данные текущей сессии.
type meResponse struct {
	DiscordID   string `json:"discord_id"`
	Username    string `json:"username"`
	AccessLevel string `json:"access_level"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Me — данные текущей сессии (требует SessionAuth middleware).
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется аутентификация")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		DiscordID:   session.DiscordID,
		Username:    session.Username,
		AccessLevel: session.AccessLevel,
		ExpiresAt:   session.ExpiresAt,
	})
}

// callbackURI возвращает redirect URI для OAuth flow:
// настроенный ADB_DISCORD_REDIRECT_URI либо построенный из запроса.
func (h *AuthHandler) callbackURI(r *http.Request) string {
	if h.redirectURI != "" {
		return h.redirectURI
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/auth/callback", scheme, r.Host)
}
