// Package server provides the temporary localhost HTTP server used during
// OAuth authorization.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, and sends the result through a channel. It
// only processes one callback to prevent replay attacks. Spotify omits the
// refresh token when the app was previously authorized; the handler treats
// that as a failure since the daemon cannot run without one.
//
// # Lifecycle
//
// When the user runs `sidetrack auth`, a [CallbackServer] starts on the
// configured host and port (default 127.0.0.1:8888), handles the single
// callback, and shuts down after the OAuth token is received or the flow
// times out.
package server
