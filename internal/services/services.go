package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Track represents a music track as reported by the listening service.
type Track struct {
	ID         string
	Title      string
	Artist     string
	Album      string
	URL        string
	URI        string
	DurationMS int
}

// NowPlaying is one observation of the listening account's playback state.
type NowPlaying struct {
	Track      Track
	IsPlaying  bool
	ProgressMS int
}

// Player reports the listening account's current playback.
type Player interface {
	// CurrentlyPlaying returns the active track, or nil when nothing (or a
	// non-track such as a podcast episode) is playing.
	CurrentlyPlaying(ctx context.Context) (*NowPlaying, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Outcome classifies a download attempt.
type Outcome string

const (
	// OutcomeDownloaded means the tool fetched and organized the file.
	OutcomeDownloaded Outcome = "downloaded"
	// OutcomeExists means the file was already on disk; terminal success.
	OutcomeExists Outcome = "exists"
	// OutcomeFailed means the attempt failed and should be retried later.
	OutcomeFailed Outcome = "failed"
)

// Downloader fetches a single track under the downloading account.
type Downloader interface {
	// Download attempts one track and classifies the result. The error
	// carries detail for OutcomeFailed; successful outcomes return nil.
	Download(ctx context.Context, track Track) (Outcome, error)

	// Destination resolves where the track lands relative to the
	// download root.
	Destination(track Track) string

	// Name returns the name of the tool (e.g., "zotify")
	Name() string
}

// OAuthService is implemented by players that support the server-side OAuth
// authorization-code flow used by the auth command.
type OAuthService interface {
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
}
