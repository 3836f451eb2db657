package sheets

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	readonlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"
	grantType     = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	assertionLifetime = time.Hour
	// refreshWindow refreshes a little early so a token never expires
	// mid-request.
	refreshWindow = 2 * time.Minute
)

// Credential is the process-wide cached access token for the spreadsheet API.
// It mints a service-account JWT-bearer assertion, exchanges it at the token
// endpoint, and caches the result until shortly before expiry. It implements
// oauth2.TokenSource and is safe for concurrent handlers.
type Credential struct {
	mu         sync.Mutex
	email      string
	key        *rsa.PrivateKey
	tokenURL   string
	httpClient *http.Client
	now        func() time.Time

	cached *oauth2.Token
}

// NewCredential parses the PEM-encoded service-account private key and
// returns a lazily-refreshing credential.
func NewCredential(email string, pemKey []byte, tokenURL string) (*Credential, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return &Credential{
		email:      email,
		key:        key,
		tokenURL:   tokenURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}, nil
}

// Token returns the cached access token, refreshing it when expired or
// within the refresh window.
func (c *Credential) Token() (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.now().Before(c.cached.Expiry.Add(-refreshWindow)) {
		return c.cached, nil
	}

	tok, err := c.refresh()
	if err != nil {
		return nil, err
	}
	c.cached = tok
	return tok, nil
}

func (c *Credential) refresh() (*oauth2.Token, error) {
	now := c.now()
	claims := jwt.MapClaims{
		"iss":   c.email,
		"scope": readonlyScope,
		"aud":   c.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.key)
	if err != nil {
		return nil, fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", grantType)
	form.Set("assertion", assertion)

	resp, err := c.httpClient.Post(c.tokenURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token exchange failed: status=%d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	return &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		Expiry:      now.Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}
