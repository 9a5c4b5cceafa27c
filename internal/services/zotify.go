// Exec-based implementation of [Downloader] driving a zotify-compatible CLI
package services

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sidetrack/internal/shared"
)

// outputTemplate is the folder convention handed to the download tool:
// artist/album/title, degrading inside the tool when fields are missing.
const outputTemplate = "{artist}/{album}/{song_name}.{ext}"

// runFunc abstracts command execution so tests can stub the tool.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ZotifyDownloader implements [Downloader] by invoking an external
// zotify-compatible command under the downloading account.
type ZotifyDownloader struct {
	command  string
	root     string
	format   string
	username string
	password string
	logger   *log.Logger
	run      runFunc
}

// NewZotifyDownloader creates a downloader from the downloads and credentials
// configuration sections.
func NewZotifyDownloader(downloads shared.DownloadsConfig, account shared.DownloadingConfig, logger *log.Logger) *ZotifyDownloader {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	command := downloads.Command
	if command == "" {
		command = "zotify"
	}
	format := strings.TrimPrefix(downloads.Format, ".")
	if format == "" {
		format = "ogg"
	}

	return &ZotifyDownloader{
		command:  command,
		root:     downloads.Root,
		format:   format,
		username: account.Username,
		password: account.Password,
		logger:   logger,
		run:      execRun,
	}
}

func (z *ZotifyDownloader) Name() string {
	return z.command
}

// Download runs the tool for a single track. An existing file on disk is the
// tool's call (skip-existing stays enabled) and is treated as success.
func (z *ZotifyDownloader) Download(ctx context.Context, track Track) (Outcome, error) {
	url := trackURL(track)
	if url == "" {
		return OutcomeFailed, fmt.Errorf("%w: no usable URL for track %s", shared.ErrInvalidInput, track.ID)
	}

	args := []string{
		"--username", z.username,
		"--password", z.password,
		"--root-path", z.root,
		"--output", outputTemplate,
		"--download-format", z.format,
		"--skip-existing", "true",
		url,
	}

	z.logger.Debug("invoking download tool", "command", z.command, "url", url)

	output, err := z.run(ctx, z.command, args...)
	if err != nil {
		reason := outputTail(output)
		if reason == "" {
			reason = err.Error()
		}
		return OutcomeFailed, fmt.Errorf("%w: %s", shared.ErrDownloadFailed, reason)
	}

	if skippedExisting(output) {
		return OutcomeExists, nil
	}
	return OutcomeDownloaded, nil
}

// Destination resolves the path of the downloaded file relative to the root
// folder: artist/album/title.ext, dropping empty components.
func (z *ZotifyDownloader) Destination(track Track) string {
	return DestinationPath(track, z.format)
}

// DestinationPath resolves the folder template for a track:
// {artist}/{album}/{title}.{ext}, degrading to {album}/{title}.{ext} when the
// artist is unknown.
func DestinationPath(track Track, ext string) string {
	title := sanitizeComponent(track.Title)
	if title == "" {
		title = sanitizeComponent(track.ID)
	}

	parts := make([]string, 0, 3)
	if artist := sanitizeComponent(track.Artist); artist != "" {
		parts = append(parts, artist)
	}
	if album := sanitizeComponent(track.Album); album != "" {
		parts = append(parts, album)
	}
	parts = append(parts, title+"."+strings.TrimPrefix(ext, "."))

	return filepath.Join(parts...)
}

// sanitizeComponent strips characters that would escape or break a single
// path segment.
func sanitizeComponent(segment string) string {
	segment = strings.TrimSpace(segment)
	replacer := strings.NewReplacer("/", "_", "\\", "_", string(rune(0)), "")
	segment = replacer.Replace(segment)
	return strings.Trim(segment, ".")
}

// trackURL picks the open.spotify.com URL for the tool, deriving it from the
// URI or the bare ID when the API response had no external URL.
func trackURL(track Track) string {
	if strings.HasPrefix(track.URL, "http") {
		return track.URL
	}
	if id, ok := strings.CutPrefix(track.URI, "spotify:track:"); ok {
		return "https://open.spotify.com/track/" + id
	}
	if track.ID != "" {
		return "https://open.spotify.com/track/" + track.ID
	}
	return ""
}

// skippedExisting reports whether the tool declined the download because the
// file is already on disk (zotify prints "SKIPPING: SONG ALREADY EXISTS").
func skippedExisting(output []byte) bool {
	text := strings.ToLower(string(output))
	return strings.Contains(text, "skipping") || strings.Contains(text, "already exists")
}

// outputTail returns the last non-empty line of tool output for error
// reporting.
func outputTail(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
