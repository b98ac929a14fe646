package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
)

// TokenStore persists the signed-in reader's token as JSON on disk.
type TokenStore struct {
	path string
}

// NewTokenStore creates a [TokenStore] writing to path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the stored token; [shared.ErrNotAuthenticated] when none was saved.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no saved session", shared.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: saved session has no access token", shared.ErrNotAuthenticated)
	}
	return &token, nil
}

// Save writes token with owner-only permissions.
func (s *TokenStore) Save(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Clear removes the stored token. A missing file is not an error.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// authResponse is the body of a successful token grant.
type authResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (r authResponse) token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
	}
	switch {
	case r.ExpiresAt > 0:
		token.Expiry = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		token.Expiry = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return token
}

func (r authResponse) identity() *models.Identity {
	return &models.Identity{UserID: r.User.ID, Email: r.User.Email}
}

// grant exchanges credentials or a refresh token at the token endpoint.
func (c *RemoteClient) grant(ctx context.Context, grantType string, body any) (*authResponse, error) {
	var auth authResponse
	_, err := c.sendJSON(ctx, apiRequest{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {grantType}},
		body:   body,
	}, &auth)
	if err != nil {
		return nil, err
	}
	if auth.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response has no access token", shared.ErrMalformedResponse)
	}
	return &auth, nil
}

// refreshSource is an [oauth2.TokenSource] that trades the latest refresh token for a new access token.
//
// Refresh tokens rotate: every successful refresh replaces the one held here.
type refreshSource struct {
	client *RemoteClient

	mu           sync.Mutex
	refreshToken string
}

func (s *refreshSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	auth, err := s.client.grant(ctx, "refresh_token", map[string]string{"refresh_token": s.refreshToken})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	token := auth.token()
	if token.RefreshToken == "" {
		token.RefreshToken = s.refreshToken
	}
	s.refreshToken = token.RefreshToken
	return token, nil
}

// persistingSource saves every new token it hands out to the [TokenStore].
type persistingSource struct {
	src   oauth2.TokenSource
	store *TokenStore

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token.AccessToken != s.last {
		if err := s.store.Save(token); err != nil {
			return nil, err
		}
		s.last = token.AccessToken
	}
	return token, nil
}

// newTokenSource wraps a stored token in a refreshing, persisting [oauth2.TokenSource].
func (c *RemoteClient) newTokenSource(token *oauth2.Token) oauth2.TokenSource {
	refresher := &refreshSource{client: c, refreshToken: token.RefreshToken}
	return &persistingSource{
		src:   oauth2.ReuseTokenSource(token, refresher),
		store: c.store,
		last:  token.AccessToken,
	}
}
