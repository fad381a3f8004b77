// Package google provides OAuth2 authentication and token caching for the
// Google Tasks import.
//
// The token is obtained once with an interactive authorization code exchange
// (taskcal google-auth) and cached on disk. Later imports load the cached
// token and let golang.org/x/oauth2 refresh it as needed.
package google
