package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rockolahq/rockola/internal/server"
	"github.com/rockolahq/rockola/internal/services"
	"github.com/rockolahq/rockola/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Login performs the OAuth2 sign-in flow for a registered account, then
// resolves a session carrying the stable account identity.
//
// Starts a local HTTP server, opens the browser for authorization, and
// exchanges the auth code for tokens.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")

	if r.config.Auth.ClientID == "" || r.config.Auth.ClientSecret == "" {
		return fmt.Errorf("%w: auth client_id and client_secret must be set in config.toml", shared.ErrMissingConfig)
	}

	auth, err := services.NewAccountAuth(r.config.Backend.BaseURL, map[string]string{
		"client_id":     r.config.Auth.ClientID,
		"client_secret": r.config.Auth.ClientSecret,
		"redirect_uri":  r.config.Auth.RedirectURI,
	})
	if err != nil {
		return fmt.Errorf("failed to create account auth: %w", err)
	}

	token, err := r.doOAuth(auth)
	if err != nil {
		return err
	}
	auth.SetToken(token)

	accountID, err := auth.AccountID()
	if err != nil {
		return fmt.Errorf("sign-in succeeded but the account id could not be read: %w", err)
	}

	sess, err := r.resolveSession(ctx, slug, accountID)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Signed in")
	r.writePlain("Requester: %s\n", sess.RequesterKey)
	r.writePlain("Your favorites now follow you across visits.\n")
	return nil
}

// doOAuth runs the authorization-code flow against a temporary local
// callback server.
func (r *Runner) doOAuth(auth *services.AccountAuth) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := auth.AuthURL(state)
	oauthHandler := server.NewOAuthHandler(auth.Config(), state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	httpServer := &http.Server{
		Addr:    callbackAddr(r.config.Auth.RedirectURI),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting sign-in callback server at %v", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser to sign in...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}

// callbackAddr derives the listen address from the configured redirect URI.
func callbackAddr(redirectURI string) string {
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Host == "" {
		return "localhost:3000"
	}
	return parsed.Host
}
