package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/dealboard/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"
)

func testGoogleSync(t *testing.T) config.GoogleSync {
	t.Helper()
	return config.GoogleSync{
		ClientID:     "client",
		ClientSecret: "secret",
		CallbackPort: 9099,
		Scopes:       []string{config.GoogleContactsScope},
		TokenPath:    filepath.Join(t.TempDir(), "google", "token.json"),
	}
}

func TestNewGoogleAuthRequiresCredentials(t *testing.T) {
	cfg := testGoogleSync(t)
	cfg.ClientSecret = ""

	_, err := NewGoogleAuth(cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "GOOGLE_CLIENT_SECRET")
}

func TestGoogleAuthFollowsConfig(t *testing.T) {
	cfg := testGoogleSync(t)
	auth, err := NewGoogleAuth(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "localhost:9099", auth.CallbackAddr())
	assert.Equal(t, "http://localhost:9099/oauth/callback", auth.oauth.RedirectURL)
	assert.Equal(t, []string{config.GoogleContactsScope}, auth.oauth.Scopes)
	assert.Equal(t, cfg.TokenPath, auth.TokenPath())

	url := auth.AuthCodeURL("state-1")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "state=state-1")
	assert.Contains(t, url, "client_id=client")
}

func TestGoogleAuthDefaults(t *testing.T) {
	auth, err := NewGoogleAuth(config.GoogleSync{ClientID: "client", ClientSecret: "secret"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8085", auth.CallbackAddr())
	assert.Equal(t, []string{config.GoogleContactsScope}, auth.oauth.Scopes)
	assert.Equal(t, config.DefaultGoogleTokenPath(), auth.TokenPath())
}

func TestTokenSourceBeforeInit(t *testing.T) {
	auth, err := NewGoogleAuth(testGoogleSync(t), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = auth.TokenSource(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

// tokenServer answers code exchanges and refreshes with the given access token.
func tokenServer(t *testing.T, access string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"token_type":    "Bearer",
			"refresh_token": "refresh-" + access,
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExchangeSavesToken(t *testing.T) {
	auth, err := NewGoogleAuth(testGoogleSync(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	auth.oauth.Endpoint = oauth2.Endpoint{TokenURL: tokenServer(t, "first").URL}

	token, err := auth.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "first", token.AccessToken)

	info, err := os.Stat(auth.TokenPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	ts, err := auth.TokenSource(context.Background())
	require.NoError(t, err)
	current, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "first", current.AccessToken, "a valid token is used without a refresh")
}

func TestRefreshedTokenIsSaved(t *testing.T) {
	auth, err := NewGoogleAuth(testGoogleSync(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	auth.oauth.Endpoint = oauth2.Endpoint{TokenURL: tokenServer(t, "fresh").URL}

	expired := &oauth2.Token{AccessToken: "stale", RefreshToken: "refresh", Expiry: time.Now().Add(-time.Hour)}
	require.NoError(t, auth.save(expired))

	ts, err := auth.TokenSource(context.Background())
	require.NoError(t, err)
	token, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)

	stored, err := auth.load()
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored.AccessToken)
}

func TestNewPeopleClientNeedsTokenSource(t *testing.T) {
	_, err := NewPeopleClient(context.Background(), nil)
	assert.Error(t, err)

	client, err := NewPeopleClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "a"}))
	require.NoError(t, err)
	assert.NotNil(t, client.svc)
}
