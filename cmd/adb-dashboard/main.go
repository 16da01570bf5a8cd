// Точка входа ADB Dashboard — backend дашборда модерации DayZ-серверов.
// Загружает конфигурацию, применяет миграции, создаёт пул подключений
// к PostgreSQL, инициализирует Discord OAuth-клиент, сервисный слой и
// API handlers, запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx" для topologymetrics

	"github.com/dayzadb/adb-dashboard/internal/api/handlers"
	"github.com/dayzadb/adb-dashboard/internal/config"
	"github.com/dayzadb/adb-dashboard/internal/database"
	"github.com/dayzadb/adb-dashboard/internal/discord"
	"github.com/dayzadb/adb-dashboard/internal/domain/rbac"
	"github.com/dayzadb/adb-dashboard/internal/repository"
	"github.com/dayzadb/adb-dashboard/internal/server"
	"github.com/dayzadb/adb-dashboard/internal/service"
	"github.com/dayzadb/adb-dashboard/internal/ui/auth"
	uimiddleware "github.com/dayzadb/adb-dashboard/internal/ui/middleware"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("ADB Dashboard запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// Предупреждения о дефолтных значениях topologymetrics
	if os.Getenv("ADB_DEPHEALTH_GROUP") == "" {
		logger.Warn("ADB_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Пул подключений к PostgreSQL
	ctx := context.Background()
	pool, err := database.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Отдельный *sql.DB для topologymetrics.
	// Проверка здоровья идёт мимо пула приложения: падение проверки
	// означает проблему с PostgreSQL, а не исчерпание нашего пула.
	pgDB, err := sql.Open("pgx", cfg.DatabaseURL())
	if err != nil {
		logger.Error("Ошибка создания sql.DB для мониторинга", slog.String("error", err.Error()))
		os.Exit(1)
	}
	pgDB.SetMaxOpenConns(1)
	defer pgDB.Close()

	// 5. Repositories
	playerRepo := repository.NewPlayerRepository(pool)
	configRepo := repository.NewGuildConfigRepository(pool)
	userRepo := repository.NewUserAccessRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)

	// 6. Политика ролей: владелец бота обходит все проверки
	policy := rbac.NewPolicy(cfg.BotOwnerID)

	// 7. Services (журнал действий создаётся первым — его используют остальные)
	auditSvc := service.NewActivityLogService(activityRepo, policy, logger)
	statsSvc := service.NewStatsService(playerRepo, configRepo, userRepo, policy, logger)
	serversSvc := service.NewServerService(configRepo, userRepo, auditSvc, policy, logger)
	usersSvc := service.NewUserAccessService(userRepo, auditSvc, policy, logger)
	accountsSvc := service.NewAccountService(playerRepo, userRepo, auditSvc, policy, logger)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, policy, logger)
	authSvc := service.NewAuthService(userRepo, policy, cfg, logger)

	// 8. Discord OAuth-клиент
	discordClient := discord.NewClient(discord.Config{
		ClientID:     cfg.DiscordClientID,
		ClientSecret: cfg.DiscordClientSecret,
	})

	// 9. Session Manager — шифрование сессий в cookie (AES-256-GCM).
	// Secure cookie если callback отдаётся по HTTPS.
	secureCookie := strings.HasPrefix(cfg.DiscordRedirectURI, "https")
	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, secureCookie)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("ADB_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}

	// 10. Handlers
	pgChecker := database.NewReadinessChecker(pool)
	h := &server.Handlers{
		Health:   handlers.NewHealthHandler(pgChecker),
		Auth:     handlers.NewAuthHandler(discordClient, sessionMgr, authSvc, cfg.DiscordRedirectURI, logger),
		Stats:    handlers.NewStatsHandler(statsSvc, logger),
		Servers:  handlers.NewServersHandler(serversSvc, logger),
		Users:    handlers.NewUsersHandler(usersSvc, logger),
		Accounts: handlers.NewAccountsHandler(accountsSvc, logger),
		Activity: handlers.NewActivityHandler(auditSvc, logger),
		Feedback: handlers.NewFeedbackHandler(feedbackSvc, logger),
	}

	sessionAuth := uimiddleware.NewSessionAuth(sessionMgr, logger)

	// 11. topologymetrics — мониторинг зависимостей (PostgreSQL + Discord API)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"adb-dashboard",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		"https://discord.com",
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
			dephealthSvc = nil
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, h, sessionAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 13. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("ADB Dashboard остановлен")
}
