package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// captureLog создаёт slog-логгер, пишущий JSON в буфер.
func captureLog() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// lastRecord разбирает последнюю записанную JSON-строку лога.
func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	record := map[string]any{}
	if err := json.Unmarshal(lines[len(lines)-1], &record); err != nil {
		t.Fatalf("Запись лога не JSON: %v", err)
	}
	return record
}

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"успешный запрос", http.StatusOK, "INFO"},
		{"отказ политики доступа", http.StatusForbidden, "WARN"},
		{"ошибка сервера", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := captureLog()
			handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

			record := lastRecord(t, buf)
			if record["level"] != tt.wantLevel {
				t.Errorf("level = %v, ожидается %s", record["level"], tt.wantLevel)
			}
			if record["status"] != float64(tt.status) {
				t.Errorf("status = %v, ожидается %d", record["status"], tt.status)
			}
			if record["method"] != http.MethodGet || record["path"] != "/api/v1/stats" {
				t.Errorf("method/path = %v/%v, ожидается GET /api/v1/stats", record["method"], record["path"])
			}
			if record["component"] != "http" {
				t.Errorf("component = %v, ожидается http", record["component"])
			}
		})
	}
}

func TestRequestLogger_QueryLogged(t *testing.T) {
	logger, buf := captureLog()
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts?server=Chernarus&flagged=true", nil))

	record := lastRecord(t, buf)
	if record["query"] != "server=Chernarus&flagged=true" {
		t.Errorf("query = %v, ожидается строка запроса с фильтрами", record["query"])
	}
	if record["bytes"] != float64(2) {
		t.Errorf("bytes = %v, ожидается 2", record["bytes"])
	}
}

func TestRequestLogger_NoQueryAttrWithoutQuery(t *testing.T) {
	logger, buf := captureLog()
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/servers", nil))

	record := lastRecord(t, buf)
	if _, ok := record["query"]; ok {
		t.Error("пустая строка запроса не должна попадать в лог")
	}
	// Обработчик не вызывал WriteHeader — статус по умолчанию 200
	if record["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v, ожидается 200", record["status"])
	}
}
