// Пакет server — HTTP-сервер ADB Dashboard с graceful shutdown.
// Без TLS — HTTP за reverse proxy, TLS termination на входе.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/dayzadb/adb-dashboard/internal/api/handlers"
	"github.com/dayzadb/adb-dashboard/internal/api/middleware"
	"github.com/dayzadb/adb-dashboard/internal/config"
	uimiddleware "github.com/dayzadb/adb-dashboard/internal/ui/middleware"
)

// Handlers — набор обработчиков, монтируемых на router.
type Handlers struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Stats    *handlers.StatsHandler
	Servers  *handlers.ServersHandler
	Users    *handlers.UsersHandler
	Accounts *handlers.AccountsHandler
	Activity *handlers.ActivityHandler
	Feedback *handlers.FeedbackHandler
}

// Server — HTTP-сервер ADB Dashboard.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// Публичные маршруты: OAuth flow, health probes, metrics.
// Всё под /api/v1 закрыто SessionAuth (сессия в зашифрованном cookie).
func New(cfg *config.Config, logger *slog.Logger, h *Handlers, sessionAuth *uimiddleware.SessionAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// CORS: фронтенд дашборда живёт на отдельном origin.
	// AllowCredentials обязателен — сессия передаётся в cookie.
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler)

	// Публичные маршруты: OAuth flow и probes
	router.Get("/auth/login", h.Auth.Login)
	router.Get("/auth/callback", h.Auth.Callback)
	router.Post("/auth/logout", h.Auth.Logout)
	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)

	// API дашборда: всё под сессионной аутентификацией
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(sessionAuth.Middleware())

		r.Get("/me", h.Auth.Me)

		r.Get("/stats", h.Stats.GetStats)
		r.Get("/stats/trend", h.Stats.GetTrend)

		r.Get("/servers", h.Servers.ListServers)
		r.Get("/servers/names", h.Servers.ListServerNames)
		r.Get("/servers/{id}", h.Servers.GetServer)
		r.Put("/servers/{id}", h.Servers.UpdateServer)

		r.Get("/users", h.Users.ListUsers)
		r.Post("/users", h.Users.AddUser)
		r.Put("/users/{discordID}", h.Users.UpdateUser)
		r.Delete("/users/{discordID}", h.Users.DeleteUser)
		r.Put("/users/{discordID}/servers", h.Users.AssignServers)

		r.Get("/accounts", h.Accounts.ListAccounts)
		r.Get("/accounts/alt-groups", h.Accounts.ListAltGroups)
		r.Get("/accounts/{id}", h.Accounts.GetAccount)
		r.Put("/accounts/{id}", h.Accounts.UpdateAccount)

		r.Get("/activity", h.Activity.ListActivity)

		r.Post("/feedback", h.Feedback.SubmitFeedback)
		r.Get("/feedback", h.Feedback.ListFeedback)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
