// Пакет discord — OAuth2-клиент Discord для аутентификации дашборда.
// Реализует Authorization Code Flow (confidential client, scope "identify").
package discord

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Endpoints Discord OAuth2 и API.
const (
	defaultAuthorizeURL = "https://discord.com/oauth2/authorize"
	defaultTokenURL     = "https://discord.com/api/oauth2/token"
	defaultAPIBaseURL   = "https://discord.com/api/v10"
)

// ErrUpstream — Discord недоступен или вернул некорректный ответ.
// Отличает сбой провайдера от отказа в доступе.
var ErrUpstream = errors.New("Discord API недоступен")

// Client — клиент Discord OAuth2 (token exchange + профиль пользователя).
type Client struct {
	clientID     string
	clientSecret string
	authorizeURL string
	tokenURL     string
	apiBaseURL   string
	httpClient   *http.Client
}

// Config — конфигурация Discord-клиента.
type Config struct {
	// ClientID — Client ID Discord-приложения.
	ClientID string
	// ClientSecret — Client Secret Discord-приложения.
	ClientSecret string
	// BaseURL — переопределение базовых URL (для тестов). Пустой — боевые endpoints.
	BaseURL string
	// HTTPClient — HTTP-клиент (nil — создаётся новый с Timeout).
	HTTPClient *http.Client
	// Timeout — таймаут HTTP-запросов. Используется при HTTPClient == nil.
	Timeout time.Duration
}

// NewClient создаёт Discord-клиент на основе конфигурации.
func NewClient(cfg Config) *Client {
	authorizeURL := defaultAuthorizeURL
	tokenURL := defaultTokenURL
	apiBaseURL := defaultAPIBaseURL
	if cfg.BaseURL != "" {
		authorizeURL = cfg.BaseURL + "/oauth2/authorize"
		tokenURL = cfg.BaseURL + "/api/oauth2/token"
		apiBaseURL = cfg.BaseURL + "/api/v10"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		authorizeURL: authorizeURL,
		tokenURL:     tokenURL,
		apiBaseURL:   apiBaseURL,
		httpClient:   httpClient,
	}
}

// AuthorizeURL формирует URL для redirect пользователя на страницу согласия Discord.
// redirectURI — URL callback; state — случайный параметр для CSRF-защиты.
func (c *Client) AuthorizeURL(redirectURI, state string) string {
	params := url.Values{
		"client_id":     {c.clientID},
		"response_type": {"code"},
		"redirect_uri":  {redirectURI},
		"state":         {state},
		"scope":         {"identify"},
	}
	return c.authorizeURL + "?" + params.Encode()
}

// TokenResponse — ответ token endpoint Discord.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// User — профиль пользователя Discord (GET /users/@me, scope "identify").
type User struct {
	// ID — Discord ID (snowflake, строка)
	ID string `json:"id"`
	// Username — имя пользователя
	Username string `json:"username"`
	// GlobalName — отображаемое имя (может быть пустым)
	GlobalName string `json:"global_name"`
}

// DisplayName возвращает отображаемое имя: global_name, если задано, иначе username.
func (u *User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// ExchangeCode обменивает authorization code на access token.
// redirectURI — тот же redirect URI, что использовался в authorize URL.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка запроса к token endpoint: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения ответа: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: token endpoint вернул статус %d: %s",
			ErrUpstream, resp.StatusCode, truncate(string(body), 200))
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("%w: ошибка парсинга token response: %v", ErrUpstream, err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: token endpoint вернул пустой access_token", ErrUpstream)
	}

	return &tokenResp, nil
}

// FetchUser запрашивает профиль пользователя через GET /users/@me.
func (c *Client) FetchUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка запроса профиля: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения ответа: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: /users/@me вернул статус %d: %s",
			ErrUpstream, resp.StatusCode, truncate(string(body), 200))
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("%w: ошибка парсинга профиля: %v", ErrUpstream, err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: профиль без id", ErrUpstream)
	}

	return &user, nil
}

// GenerateState генерирует случайный state parameter для CSRF-защиты.
func GenerateState() (string, error) {
	stateBytes := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, stateBytes); err != nil {
		return "", fmt.Errorf("ошибка генерации state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(stateBytes), nil
}

// truncate ограничивает строку для сообщений об ошибках.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
