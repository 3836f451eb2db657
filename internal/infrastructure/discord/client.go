package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vetgate/internal/config"
	"github.com/vetgate/internal/domain"
)

// Client makes outbound REST calls to the chat platform: OAuth code
// exchange, identity lookup, and role grants.
type Client struct {
	httpClient   *http.Client
	apiBase      string
	botToken     string
	clientID     string
	clientSecret string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		apiBase:      strings.TrimRight(cfg.DiscordAPIBase, "/"),
		botToken:     cfg.DiscordBotToken,
		clientID:     cfg.DiscordClientID,
		clientSecret: cfg.DiscordClientSecret,
	}
}

// ExchangeCode swaps an authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return payload.AccessToken, nil
}

// FetchIdentity returns the authenticated user behind an access token.
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (*domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch identity: %w", err)
	}

	var payload struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Verified bool   `json:"verified"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	return &domain.Identity{ID: payload.ID, Email: payload.Email, Verified: payload.Verified}, nil
}

// GrantRole attaches a role to a guild member. The platform treats the call
// as idempotent, so repeating it with the same arguments is safe. Callers
// log non-2xx errors and carry on — grants are best-effort.
func (c *Client) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	u := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", c.apiBase, guildID, userID, roleID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, nil)
	if err != nil {
		return fmt.Errorf("build role request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)

	if _, err := c.do(req); err != nil {
		return fmt.Errorf("grant role %s: %w", roleID, err)
	}
	return nil
}

// AuthorizeURL builds the delegated-authorization entry URL the user clicks
// to let the platform vouch for their verified email.
func AuthorizeURL(apiBase, clientID, redirectURI string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "identify email")
	return strings.TrimRight(apiBase, "/") + "/oauth2/authorize?" + q.Encode()
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status=%d: %w", resp.StatusCode, statusErr(resp.StatusCode))
	}
	return body, nil
}

// statusErr maps an HTTP status onto a domain sentinel so retry predicates
// can distinguish client mistakes (don't retry) from upstream trouble (do).
func statusErr(status int) error {
	if status >= 400 && status < 500 {
		return domain.ErrBadRequest
	}
	return domain.ErrUnavailable
}
