// Пакет config — загрузка и валидация конфигурации ADB Dashboard
// из переменных окружения (с поддержкой .env через godotenv).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации ADB Dashboard.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Разрешённые origins для CORS (через запятую)
	CORSAllowedOrigins []string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Ёмкость пула соединений
	DBPoolSize int

	// --- Discord OAuth ---

	// Client ID Discord-приложения
	DiscordClientID string
	// Client Secret Discord-приложения
	DiscordClientSecret string
	// Redirect URI для callback (если пустой — строится из запроса)
	DiscordRedirectURI string
	// Discord ID владельца бота (обходит все проверки ролей)
	BotOwnerID string
	// Allow-list Discord ID: если задан, вход разрешён только перечисленным.
	// Пустой список — ограничение не настроено.
	AllowedDiscordIDs []string

	// --- Сессии ---

	// Секрет для шифрования session cookie.
	// Если пустой — генерируется случайный ключ (сессии не переживут рестарт).
	SessionSecret string

	// --- Мониторинг зависимостей ---

	// Имя группы в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
// Перед чтением окружения подгружает .env, если файл существует
// (только для локальной разработки, отсутствие файла не ошибка).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// ADB_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("ADB_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("ADB_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("ADB_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// ADB_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("ADB_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("ADB_LOG_LEVEL: %w", err)
	}

	// ADB_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("ADB_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("ADB_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// ADB_CORS_ORIGINS — origins фронтенда (по умолчанию dev-сервер Vite)
	cfg.CORSAllowedOrigins = parseCSV(getEnvDefault("ADB_CORS_ORIGINS", "http://localhost:5173"))

	// --- PostgreSQL ---

	// ADB_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("ADB_DB_HOST")
	if err != nil {
		return nil, err
	}

	// ADB_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("ADB_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("ADB_DB_PORT: %w", err)
	}

	// ADB_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("ADB_DB_NAME")
	if err != nil {
		return nil, err
	}

	// ADB_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("ADB_DB_USER")
	if err != nil {
		return nil, err
	}

	// ADB_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("ADB_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// ADB_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("ADB_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("ADB_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// ADB_DB_POOL_SIZE — ёмкость пула соединений (по умолчанию 10)
	cfg.DBPoolSize, err = getEnvInt("ADB_DB_POOL_SIZE", 10)
	if err != nil {
		return nil, fmt.Errorf("ADB_DB_POOL_SIZE: %w", err)
	}
	if cfg.DBPoolSize < 1 || cfg.DBPoolSize > 100 {
		return nil, fmt.Errorf("ADB_DB_POOL_SIZE: значение %d вне допустимого диапазона 1-100", cfg.DBPoolSize)
	}

	// --- Discord OAuth ---

	// ADB_DISCORD_CLIENT_ID — обязательный
	cfg.DiscordClientID, err = getEnvRequired("ADB_DISCORD_CLIENT_ID")
	if err != nil {
		return nil, err
	}

	// ADB_DISCORD_CLIENT_SECRET — обязательный
	cfg.DiscordClientSecret, err = getEnvRequired("ADB_DISCORD_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}

	// ADB_DISCORD_REDIRECT_URI — опциональный (иначе строится из запроса)
	cfg.DiscordRedirectURI = getEnvDefault("ADB_DISCORD_REDIRECT_URI", "")

	// ADB_BOT_OWNER_ID — обязательный
	cfg.BotOwnerID, err = getEnvRequired("ADB_BOT_OWNER_ID")
	if err != nil {
		return nil, err
	}

	// ADB_ALLOWED_DISCORD_IDS — allow-list (по умолчанию пустой)
	cfg.AllowedDiscordIDs = parseCSV(getEnvDefault("ADB_ALLOWED_DISCORD_IDS", ""))

	// --- Сессии ---

	// ADB_SESSION_SECRET — опциональный
	cfg.SessionSecret = getEnvDefault("ADB_SESSION_SECRET", "")

	// --- Мониторинг зависимостей ---

	// ADB_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию "adb")
	cfg.DephealthGroup = getEnvDefault("ADB_DEPHEALTH_GROUP", "adb")

	// ADB_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("ADB_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ADB_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// ADB_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("ADB_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ADB_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате key=value.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (для golang-migrate и лейблов topologymetrics).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAllowed проверяет Discord ID по allow-list.
// Пустой allow-list означает, что ограничение не настроено — доступ открыт.
func (c *Config) IsAllowed(discordID string) bool {
	if len(c.AllowedDiscordIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedDiscordIDs {
		if id == discordID {
			return true
		}
	}
	return false
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 15m, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез непустых строк.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
