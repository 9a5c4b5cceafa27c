package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/sidetrack/internal/server"
	"github.com/desertthunder/sidetrack/internal/services"
	"github.com/desertthunder/sidetrack/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Auth performs the OAuth2 authorization flow for the listening account.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// saves the refresh token into the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config := r.config

	listening := config.Credentials.Listening
	if listening.ClientID == "" || listening.ClientSecret == "" {
		return fmt.Errorf("%w: listening client_id and client_secret must be set in %s",
			shared.ErrMissingCredentials, configPath)
	}

	spotifyService, err := services.NewSpotifyService(listening.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(ctx, spotifyService)
	if err != nil {
		return err
	}

	config.Credentials.Listening.RefreshToken = token.RefreshToken
	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Refresh token saved to %s\n\n", configPath)
	r.writePlain("You can now use: sidetrack run\n")

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	callbackServer := server.NewCallbackServer(r.config.Server, r.logger, oauthHandler)

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting OAuth server", "addr", callbackServer.Addr())
		if err := callbackServer.Start(); err != nil {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
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
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := callbackServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
