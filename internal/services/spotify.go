// Spotify API implementation of [Player]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/sidetrack/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Requests per second against the Web API. Polling happens every
	// tens of seconds; the limiter only guards against misconfiguration.
	spotifyRateLimit = 2
)

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Explicit     bool            `json:"explicit"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyCurrentlyPlaying represents the playback state response.
type SpotifyCurrentlyPlaying struct {
	IsPlaying            bool          `json:"is_playing"`
	ProgressMS           int           `json:"progress_ms"`
	CurrentlyPlayingType string        `json:"currently_playing_type"`
	Item                 *SpotifyTrack `json:"item"`
}

// SpotifyService implements the [Player] interface for the Spotify Web API.
// Uses [oauth2] for authentication with automatic access-token refresh.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given credentials.
//
// Requires client_id and client_secret; when refresh_token is present the
// service is immediately usable, otherwise [SpotifyService.Authenticate] must
// be called with one first.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-currently-playing",
			"user-read-playback-state",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	s := &SpotifyService{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(spotifyRateLimit), 1),
		baseURL: spotifyBaseURL,
	}

	if refreshToken := credentials["refresh_token"]; refreshToken != "" {
		if err := s.Authenticate(context.Background(), credentials); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Authenticate installs a refresh token. The [oauth2] transport renews access
// tokens transparently on expiry.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	refreshToken, ok := credentials["refresh_token"]
	if !ok || refreshToken == "" {
		return fmt.Errorf("%w: missing refresh_token", shared.ErrNoRefreshToken)
	}

	s.httpClient = s.config.Client(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 config for the callback handler.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// CurrentlyPlaying returns the track the listening account is playing right
// now, or nil when playback is stopped or a non-track (podcast episode) is
// active.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (*NowPlaying, error) {
	if s.httpClient == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNoRefreshToken)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/me/player/currently-playing", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		// No active playback.
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: spotify returned 401", shared.ErrTokenExpired)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: spotify returned 429", shared.ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: spotify API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var playing SpotifyCurrentlyPlaying
	if err := json.NewDecoder(resp.Body).Decode(&playing); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if playing.Item == nil {
		return nil, nil
	}
	if playing.CurrentlyPlayingType != "" && playing.CurrentlyPlayingType != "track" {
		return nil, nil
	}

	return &NowPlaying{
		Track:      mapSpotifyTrack(*playing.Item),
		IsPlaying:  playing.IsPlaying,
		ProgressMS: playing.ProgressMS,
	}, nil
}

// mapSpotifyTrack converts the API payload into the provider-neutral Track.
// Multiple artists collapse to the primary (first) one; zotify re-derives the
// full credit list from its own metadata lookup.
func mapSpotifyTrack(st SpotifyTrack) Track {
	track := Track{
		ID:         st.ID,
		Title:      st.Name,
		Album:      st.Album.Name,
		URL:        st.ExternalURLs.Spotify,
		URI:        st.URI,
		DurationMS: st.DurationMS,
	}
	if len(st.Artists) > 0 {
		track.Artist = st.Artists[0].Name
	}
	return track
}
