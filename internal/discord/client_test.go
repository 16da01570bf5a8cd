package discord

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// newTestClient создаёт клиент, направленный на httptest-сервер.
func newTestClient(serverURL string) *Client {
	return NewClient(Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		BaseURL:      serverURL,
	})
}

func TestAuthorizeURL(t *testing.T) {
	c := newTestClient("https://discord.example.com")

	raw := c.AuthorizeURL("https://dashboard.example.com/auth/callback", "state-123")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthorizeURL() вернул некорректный URL: %v", err)
	}

	if !strings.HasPrefix(raw, "https://discord.example.com/oauth2/authorize?") {
		t.Errorf("AuthorizeURL() = %q, ожидается префикс /oauth2/authorize", raw)
	}

	q := u.Query()
	checks := map[string]string{
		"client_id":     "test-client-id",
		"response_type": "code",
		"redirect_uri":  "https://dashboard.example.com/auth/callback",
		"state":         "state-123",
		"scope":         "identify",
	}
	for param, want := range checks {
		if got := q.Get(param); got != want {
			t.Errorf("параметр %s = %q, ожидается %q", param, got, want)
		}
	}
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/oauth2/token" {
			t.Errorf("запрос на %s, ожидается /api/oauth2/token", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ошибка разбора формы: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %q, ожидается authorization_code", got)
		}
		if got := r.PostForm.Get("code"); got != "auth-code-42" {
			t.Errorf("code = %q, ожидается auth-code-42", got)
		}
		if got := r.PostForm.Get("client_secret"); got != "test-client-secret" {
			t.Errorf("client_secret = %q, ожидается test-client-secret", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-abc","token_type":"Bearer","expires_in":604800,"scope":"identify"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	token, err := c.ExchangeCode(context.Background(), "auth-code-42", "https://dashboard.example.com/auth/callback")
	if err != nil {
		t.Fatalf("ExchangeCode() ошибка: %v", err)
	}
	if token.AccessToken != "tok-abc" {
		t.Errorf("AccessToken = %q, ожидается tok-abc", token.AccessToken)
	}
}

func TestExchangeCode_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			"статус не 200",
			func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			},
		},
		{
			"некорректный JSON",
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>gateway error</html>"))
			},
		},
		{
			"пустой access_token",
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := newTestClient(srv.URL)
			_, err := c.ExchangeCode(context.Background(), "code", "https://cb.example.com")
			if !errors.Is(err, ErrUpstream) {
				t.Errorf("ExchangeCode() = %v, ожидается ErrUpstream", err)
			}
		})
	}
}

func TestExchangeCode_ServerUnreachable(t *testing.T) {
	// Сервер закрыт сразу — запрос не дойдёт
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.ExchangeCode(context.Background(), "code", "https://cb.example.com")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("ExchangeCode() при недоступном сервере = %v, ожидается ErrUpstream", err)
	}
}

func TestFetchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v10/users/@me" {
			t.Errorf("запрос на %s, ожидается /api/v10/users/@me", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-abc" {
			t.Errorf("Authorization = %q, ожидается Bearer tok-abc", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"200000000000000001","username":"survivor","global_name":"Survivor"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	user, err := c.FetchUser(context.Background(), "tok-abc")
	if err != nil {
		t.Fatalf("FetchUser() ошибка: %v", err)
	}
	if user.ID != "200000000000000001" {
		t.Errorf("ID = %q, ожидается 200000000000000001", user.ID)
	}
	if user.DisplayName() != "Survivor" {
		t.Errorf("DisplayName() = %q, ожидается Survivor", user.DisplayName())
	}
}

func TestFetchUser_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"401: Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.FetchUser(context.Background(), "bad-token"); !errors.Is(err, ErrUpstream) {
		t.Errorf("FetchUser() = %v, ожидается ErrUpstream", err)
	}
}

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"global_name задан", User{Username: "survivor", GlobalName: "Survivor"}, "Survivor"},
		{"global_name пустой", User{Username: "survivor"}, "survivor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, ожидается %q", got, tt.want)
			}
		})
	}
}

func TestGenerateState(t *testing.T) {
	s1, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() ошибка: %v", err)
	}
	s2, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() ошибка: %v", err)
	}

	if s1 == "" || s2 == "" {
		t.Error("GenerateState() вернул пустую строку")
	}
	if s1 == s2 {
		t.Error("GenerateState() должен возвращать разные значения")
	}
}
