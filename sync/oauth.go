// ABOUTME: Google authorization for the contacts import, driven by config.GoogleSync
// ABOUTME: Exchanges the consent code and hands out a token source that persists refreshed tokens
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	stdsync "sync"

	"github.com/harperreed/dealboard/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CallbackPath is where the consent screen redirects back to.
const CallbackPath = "/oauth/callback"

// ErrNotAuthorized is returned when no token has been saved yet.
var ErrNotAuthorized = errors.New("google contacts import is not authorized; run 'dealboard sync init'")

// GoogleAuth holds the OAuth client for the People API and the token file.
type GoogleAuth struct {
	oauth     *oauth2.Config
	port      int
	tokenPath string
	logger    *zap.Logger
}

// NewGoogleAuth builds the OAuth client from the import settings. The client
// id and secret must be set (GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET or
// google_sync.client_id and google_sync.client_secret).
func NewGoogleAuth(cfg config.GoogleSync, logger *zap.Logger) (*GoogleAuth, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("google OAuth credentials not configured: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	port := cfg.CallbackPort
	if port == 0 {
		port = config.Default().GoogleSync.CallbackPort
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{config.GoogleContactsScope}
	}
	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		tokenPath = config.DefaultGoogleTokenPath()
	}

	return &GoogleAuth{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  fmt.Sprintf("http://localhost:%d%s", port, CallbackPath),
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		port:      port,
		tokenPath: tokenPath,
		logger:    logger,
	}, nil
}

// CallbackAddr is the local address the consent redirect lands on.
func (a *GoogleAuth) CallbackAddr() string {
	return fmt.Sprintf("localhost:%d", a.port)
}

// TokenPath is where the token is stored.
func (a *GoogleAuth) TokenPath() string { return a.tokenPath }

// AuthCodeURL is the consent screen URL. Offline access yields a refresh
// token so scheduled imports keep working.
func (a *GoogleAuth) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the consent code for a token and saves it.
func (a *GoogleAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	if err := a.save(token); err != nil {
		return nil, err
	}
	return token, nil
}

// TokenSource loads the saved token. Tokens refreshed while importing are
// written back so the next run starts from the newest one.
func (a *GoogleAuth) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := a.load()
	if err != nil {
		return nil, err
	}
	return &savingSource{
		base: a.oauth.TokenSource(ctx, token),
		last: token.AccessToken,
		auth: a,
	}, nil
}

type savingSource struct {
	base oauth2.TokenSource
	auth *GoogleAuth

	mu   stdsync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := s.auth.save(token); err != nil {
			// The refreshed token still works for this run.
			s.auth.logger.Warn("failed to save refreshed google token", zap.Error(err))
		}
	}
	return token, nil
}

func (a *GoogleAuth) save(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	f, err := os.OpenFile(a.tokenPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

func (a *GoogleAuth) load() (*oauth2.Token, error) {
	f, err := os.Open(a.tokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}
