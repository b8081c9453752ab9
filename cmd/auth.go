package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/spotsync/internal/server"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const oauthTimeout = 2 * time.Minute

// AuthLogin runs the browser-based authorization code flow and persists
// the resulting tokens to the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	if r.spotify == nil {
		return fmt.Errorf("%w: set Spotify client_id and client_secret in %s", shared.ErrMissingCredentials, r.configPath)
	}

	oauthSvc, ok := r.spotify.(services.OAuthService)
	if !ok {
		return fmt.Errorf("%w: %s does not support browser login", shared.ErrAuthFailed, r.spotify.Name())
	}

	token, err := r.doOAuth(ctx, oauthSvc)
	if err != nil {
		return err
	}

	if err := oauthSvc.OAuthenticate(ctx, token); err != nil {
		return err
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return err
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	r.logger.Info("authenticated", "service", oauthSvc.Name())
	return r.writePlain("Logged in to %s. Tokens saved to %s.\n", oauthSvc.Name(), r.configPath)
}

// AuthStatus reports whether cached credentials exist and whether they look current.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	creds := r.config.Credentials.Spotify

	if creds.ClientID == "" || creds.ClientSecret == "" {
		return r.writePlain("Not configured. Add Spotify client_id and client_secret to %s.\n", r.configPath)
	}

	token := creds.Token()
	if token == nil {
		return r.writePlain("Configured but not logged in. Run 'spotsync auth login'.\n")
	}

	if !token.Expiry.IsZero() && token.Expiry.Before(time.Now()) {
		if creds.RefreshToken != "" {
			return r.writePlain("Access token expired at %s; a refresh token is cached and will be used automatically.\n",
				token.Expiry.Format(time.RFC1123))
		}
		return r.writePlain("Access token expired at %s. Run 'spotsync auth login'.\n", token.Expiry.Format(time.RFC1123))
	}

	return r.writePlain("Logged in. Access token valid until %s.\n", token.Expiry.Format(time.RFC1123))
}

// doOAuth starts a local callback server, opens the authorization URL in
// the user's browser, and waits for the redirect to complete the exchange.
func (r *Runner) doOAuth(ctx context.Context, svc services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	handler := server.NewOAuthHandler(svc.GetOAuthConfig(), state)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port),
		Handler: handler,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := svc.GetAuthURL(state)
	r.writePlain("Opening browser for %s authorization...\n", svc.Name())
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Visit this URL to authorize:\n\n  %s\n\n", authURL)
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
		}
		return result.Token, nil
	case err := <-serverErr:
		return nil, fmt.Errorf("%w: callback server: %v", shared.ErrAuthFailed, err)
	case <-time.After(oauthTimeout):
		return nil, fmt.Errorf("%w: no authorization callback received", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
