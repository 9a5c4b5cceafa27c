// Package services defines the two external collaborators the daemon consumes:
// the [Player] that reports what the listening account is playing, and the
// [Downloader] that fetches tracks under the downloading account.
//
// # Spotify Implementation
//
// [SpotifyService] implements Player against the Spotify Web API using OAuth2
// with automatic token refresh: a refresh token from the config yields an
// [oauth2.TokenSource] that renews access tokens transparently. Requests pass
// through a [rate.Limiter] so a misconfigured poll interval cannot hammer the
// API.
//
// The currently-playing endpoint returns 204 when nothing is playing and a
// non-track payload when a podcast episode is active; both map to a nil
// [NowPlaying] with no error.
//
// # Download Implementation
//
// [ZotifyDownloader] implements Downloader by shelling out to a
// zotify-compatible CLI. The tool owns the on-disk organization via its output
// template and skips tracks that already exist; the skip is classified as
// [OutcomeExists], a successful terminal outcome.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrTokenExpired] : OAuth token rejected, reauthorization needed
//   - [shared.ErrRateLimited] : API returned 429
//   - [shared.ErrAPIRequest] : any other failed HTTP request
//   - [shared.ErrDownloadFailed] : download tool exited non-zero
package services
