// OAuth2 sign-in for registered diner accounts.
//
// Guests never touch this path; their sessions are table-scoped and issued
// directly by [Backend.CreateSession]. Registered users authorize once via
// the backend's OAuth endpoints, and the resulting account id is carried
// into session creation so favorites survive across visits.
package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rockolahq/rockola/internal/shared"
	"golang.org/x/oauth2"
)

// AccountAuth performs the authorization-code flow against the backend's
// OAuth endpoints and resolves the registered account id from the token.
type AccountAuth struct {
	config *oauth2.Config
	token  *oauth2.Token
}

// NewAccountAuth creates an AccountAuth from credentials. Required keys:
// client_id, client_secret; redirect_uri defaults to the local callback.
func NewAccountAuth(baseURL string, credentials map[string]string) (*AccountAuth, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrInvalidConfig)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrInvalidConfig)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"requests:write", "favorites:write"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  baseURL + "/oauth/authorize",
			TokenURL: baseURL + "/oauth/token",
		},
	}

	return &AccountAuth{config: config}, nil
}

// Config exposes the underlying [oauth2.Config] for callback handling.
func (a *AccountAuth) Config() *oauth2.Config {
	return a.config
}

// AuthURL returns the authorization URL for the browser step.
func (a *AccountAuth) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (a *AccountAuth) Exchange(ctx context.Context, code string) error {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}
	a.token = token
	return nil
}

// SetToken installs an already-obtained token.
func (a *AccountAuth) SetToken(token *oauth2.Token) {
	a.token = token
}

// AccountID resolves the registered account id. The backend stamps it into
// the token response as the "account_id" extra and into the access token's
// claims segment; the extra wins when present.
func (a *AccountAuth) AccountID() (string, error) {
	if a.token == nil {
		return "", shared.ErrNotAuthenticated
	}

	if id, ok := a.token.Extra("account_id").(string); ok && id != "" {
		return id, nil
	}

	id, err := subjectFromJWT(a.token.AccessToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrBadResponse, err)
	}
	return id, nil
}

// subjectFromJWT pulls the sub claim out of a JWT without verifying it;
// verification is the backend's job, the client only needs the identity.
func subjectFromJWT(raw string) (string, error) {
	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return "", fmt.Errorf("token is not a JWT")
	}

	payload, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		return "", fmt.Errorf("undecodable claims segment: %w", err)
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("unparseable claims: %w", err)
	}
	if claims.Sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Sub, nil
}
