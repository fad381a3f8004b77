package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gtasks "google.golang.org/api/tasks/v1"
)

// OOBRedirectURL is the redirect used for the copy-paste authorization flow.
const OOBRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// ErrNoToken is returned when no cached token exists.
var ErrNoToken = errors.New("no Google OAuth token found, run 'taskcal google-auth' first")

// Scopes are the OAuth scopes requested by taskcal. The import only reads.
var Scopes = []string{gtasks.TasksReadonlyScope}

// Credentials identify the OAuth client.
type Credentials struct {
	ClientID     string
	ClientSecret string
	// RedirectURL defaults to OOBRedirectURL.
	RedirectURL string
}

// Config returns the oauth2 configuration for creds.
func Config(creds Credentials) (*oauth2.Config, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, errors.New("google client ID and secret are required (set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
	}
	redirect := creds.RedirectURL
	if redirect == "" {
		redirect = OOBRedirectURL
	}
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       Scopes,
	}, nil
}

// AuthURL returns the URL the user opens to authorize taskcal.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and caches it at path.
func Exchange(ctx context.Context, conf *oauth2.Config, code, path string) (*oauth2.Token, error) {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := SaveToken(path, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// TokenFile returns the default token cache path.
func TokenFile() string {
	return filepath.Join(userCacheDir(), "taskcal", "google.token")
}

// HasToken reports whether a token is cached at path.
func HasToken(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// LoadToken reads a cached token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("invalid token file %s: no access or refresh token", path)
	}
	return &tok, nil
}

// HTTPClient returns a client authorized with the token cached at path.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func HTTPClient(ctx context.Context, conf *oauth2.Config, path string) (*http.Client, error) {
	tok, err := LoadToken(path)
	if err != nil {
		return nil, err
	}
	base := &http.Client{Transport: &http.Transport{ForceAttemptHTTP2: false}}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, tok)), nil
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	if runtime.GOOS == "windows" {
		return os.TempDir()
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}
