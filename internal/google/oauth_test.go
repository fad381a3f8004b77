package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testConfig(t *testing.T) *oauth2.Config {
	t.Helper()
	conf, err := Config(Credentials{ClientID: "client-id", ClientSecret: "client-secret"})
	require.NoError(t, err)
	return conf
}

func TestConfig(t *testing.T) {
	_, err := Config(Credentials{ClientID: "only-id"})
	assert.Error(t, err)

	conf := testConfig(t)
	assert.Equal(t, OOBRedirectURL, conf.RedirectURL)
	assert.Equal(t, Scopes, conf.Scopes)

	url := AuthURL(conf, "xyz")
	assert.True(t, strings.HasPrefix(url, "https://accounts.google.com/"))
	assert.Contains(t, url, "state=xyz")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "client_id=client-id")
}

func TestTokenFile(t *testing.T) {
	path := TokenFile()
	assert.Equal(t, "google.token", filepath.Base(path))
	assert.Equal(t, "taskcal", filepath.Base(filepath.Dir(path)))
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "google.token")
	assert.False(t, HasToken(path))

	_, err := LoadToken(path)
	assert.ErrorIs(t, err, ErrNoToken)

	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, SaveToken(path, tok))
	assert.True(t, HasToken(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, tok.Expiry.Equal(loaded.Expiry))
}

func TestLoadToken_Invalid(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("access refresh"), 0o600))
	_, err := LoadToken(garbage)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o600))
	_, err = LoadToken(empty)
	assert.Error(t, err)
}

func TestHTTPClient(t *testing.T) {
	conf := testConfig(t)
	_, err := HTTPClient(context.Background(), conf, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrNoToken)

	path := filepath.Join(t.TempDir(), "google.token")
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)}))
	client, err := HTTPClient(context.Background(), conf, path)
	require.NoError(t, err)
	assert.NotNil(t, client)
}
