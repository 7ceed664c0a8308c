package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"

	"romdata/internal/cache"
	"romdata/internal/logging"
	"romdata/internal/services"
)

const (
	tokenCacheKey = "romdata:igdb_token"
	// tokenExpiryMargin is subtracted from the upstream expiry so a token is
	// never handed out moments before Twitch invalidates it.
	tokenExpiryMargin = 10 * time.Second
)

// TokenManager exchanges Twitch application credentials for IGDB bearer
// tokens and caches them until shortly before expiry. A static token skips
// the exchange entirely.
type TokenManager struct {
	clientID     string
	clientSecret string
	tokenURL     string
	staticToken  string
	cache        cache.Cache
	client       *http.Client
	logger       *slog.Logger
}

// NewTokenManager builds a token manager. The cache is required unless a
// static token is configured via WithStaticToken.
func NewTokenManager(clientID, clientSecret, tokenURL string, store cache.Cache, logger *slog.Logger, opts ...TokenOption) *TokenManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &TokenManager{
		clientID:     strings.TrimSpace(clientID),
		clientSecret: strings.TrimSpace(clientSecret),
		tokenURL:     strings.TrimSpace(tokenURL),
		cache:        store,
		client:       &http.Client{Timeout: 30 * time.Second},
		logger:       logger.With(logging.String(logging.FieldComponent, "igdb-auth")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithStaticToken bypasses the Twitch exchange with a pre-provisioned token.
func WithStaticToken(token string) TokenOption {
	return func(m *TokenManager) { m.staticToken = strings.TrimSpace(token) }
}

// WithTokenHTTPClient overrides the HTTP client used for the exchange.
func WithTokenHTTPClient(client *http.Client) TokenOption {
	return func(m *TokenManager) { m.client = client }
}

// Token returns a valid bearer token, exchanging credentials with Twitch on
// cache miss. The token is cached for its lifetime minus a safety margin.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if m.staticToken != "" {
		return m.staticToken, nil
	}
	if m.cache != nil {
		if token, ok := m.cache.Get(tokenCacheKey); ok && token != "" {
			return token, nil
		}
	}
	return m.exchange(ctx)
}

// Invalidate drops the cached token so the next call performs a fresh
// exchange. Used after the API rejects a token that has not yet expired.
func (m *TokenManager) Invalidate() {
	if m.staticToken != "" || m.cache == nil {
		return
	}
	m.cache.Delete(tokenCacheKey)
}

func (m *TokenManager) exchange(ctx context.Context) (string, error) {
	if m.clientID == "" || m.clientSecret == "" {
		return "", services.Wrap(services.ErrConfiguration, "igdb", "token", "client id and secret are required", nil)
	}

	params := url.Values{
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "igdb", "token", "build token request", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrUnavailable, "igdb", "token", "reach token endpoint", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrUnavailable, "igdb", "token", "read token response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrConfiguration, "igdb", "token",
			fmt.Sprintf("token endpoint rejected credentials (status %d)", resp.StatusCode), nil)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", services.Wrap(services.ErrUnavailable, "igdb", "token", "decode token response", err)
	}
	if payload.AccessToken == "" {
		return "", services.Wrap(services.ErrConfiguration, "igdb", "token", "token response missing access_token", nil)
	}

	ttl := time.Duration(payload.ExpiresIn)*time.Second - tokenExpiryMargin
	if m.cache != nil && ttl > 0 {
		m.cache.Set(tokenCacheKey, payload.AccessToken, ttl)
	}
	m.logger.DebugContext(ctx, "token refreshed", logging.Int64("expires_in", payload.ExpiresIn))
	return payload.AccessToken, nil
}
