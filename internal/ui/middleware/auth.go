// Пакет middleware — HTTP middleware сессионной аутентификации.
// auth.go — проверка сессии из зашифрованного cookie.
// Дашборд — SPA на отдельном origin, поэтому вместо redirect на login
// возвращается 401 JSON, и фронтенд сам начинает OAuth flow.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/dayzadb/adb-dashboard/internal/api/errors"
	"github.com/dayzadb/adb-dashboard/internal/ui/auth"
)

// contextKey — тип для ключей контекста (избегаем коллизий между пакетами).
type contextKey string

// ContextKeySession — данные сессии в контексте запроса.
const ContextKeySession contextKey = "session"

// SessionAuth — middleware проверки аутентификации пользователей дашборда.
// Извлекает сессию из зашифрованного cookie и помещает её в контекст.
type SessionAuth struct {
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewSessionAuth создаёт новый SessionAuth middleware.
func NewSessionAuth(sessionManager *auth.SessionManager, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "session_auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware для проверки сессии.
// Применяется к маршрутам /api/*, кроме auth endpoints и health/metrics.
func (sa *SessionAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Извлекаем сессию из cookie
			session, err := sa.sessionManager.GetSessionFromRequest(r)
			if err != nil {
				sa.logger.Debug("Ошибка чтения сессии",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				// Повреждённый cookie — очищаем и требуем повторный вход
				sa.sessionManager.ClearSessionCookie(w)
				apierrors.Unauthorized(w, "сессия недействительна, требуется повторный вход")
				return
			}

			// 2. Сессия отсутствует
			if session == nil {
				apierrors.Unauthorized(w, "требуется аутентификация")
				return
			}

			// 3. Сессия истекла
			if session.IsExpired() {
				sa.sessionManager.ClearSessionCookie(w)
				apierrors.Unauthorized(w, "сессия истекла, требуется повторный вход")
				return
			}

			// 4. Помещаем сессию в контекст
			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext извлекает SessionData из контекста запроса.
// Возвращает nil если сессия не найдена (запрос не прошёл через SessionAuth).
func SessionFromContext(ctx context.Context) *auth.SessionData {
	session, ok := ctx.Value(ContextKeySession).(*auth.SessionData)
	if !ok {
		return nil
	}
	return session
}
