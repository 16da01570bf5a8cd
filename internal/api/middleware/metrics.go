// metrics.go — Prometheus HTTP метрики ADB Dashboard.
// Регистрирует метрики: adb_http_requests_total, adb_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adb_http_requests_total",
			Help: "Общее количество HTTP-запросов к ADB Dashboard",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adb_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к ADB Dashboard в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем числовые id на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет идентификаторы в пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /api/v1/servers/42 → /api/v1/servers/{id}
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/auth/login", "/auth/callback", "/auth/logout",
		"/api/v1/me",
		"/api/v1/stats", "/api/v1/stats/trend",
		"/api/v1/servers", "/api/v1/servers/names",
		"/api/v1/users",
		"/api/v1/accounts", "/api/v1/accounts/alt-groups",
		"/api/v1/activity",
		"/api/v1/feedback":
		return path
	}

	// Динамические пути с числовыми id или discord_id
	prefixes := []struct {
		prefix string
		result string
	}{
		{"/api/v1/servers/", "/api/v1/servers/{id}"},
		{"/api/v1/users/", "/api/v1/users/{id}"},
		{"/api/v1/accounts/", "/api/v1/accounts/{id}"},
	}

	for _, p := range prefixes {
		if strings.HasPrefix(path, p.prefix) {
			rest := path[len(p.prefix):]
			// Суффиксы после идентификатора
			if idx := strings.IndexByte(rest, '/'); idx >= 0 {
				switch rest[idx:] {
				case "/servers":
					return p.result + "/servers"
				default:
					return p.result
				}
			}
			return p.result
		}
	}

	return path
}
