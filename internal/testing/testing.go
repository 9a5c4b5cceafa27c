// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/sidetrack/internal/services"
)

// MockPlayer is a scripted test double for [services.Player]: each call to
// CurrentlyPlaying returns the next queued observation.
type MockPlayer struct {
	mu      sync.Mutex
	Queue   []*services.NowPlaying
	Err     error
	Calls   int
	repeats bool
}

// NewMockPlayer queues the given observations. When repeat is true the last
// observation is replayed once the queue is exhausted; otherwise the player
// reports nothing playing.
func NewMockPlayer(repeat bool, queue ...*services.NowPlaying) *MockPlayer {
	return &MockPlayer{Queue: queue, repeats: repeat}
}

func (m *MockPlayer) CurrentlyPlaying(ctx context.Context) (*services.NowPlaying, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Queue) == 0 {
		return nil, nil
	}

	next := m.Queue[0]
	if len(m.Queue) > 1 || !m.repeats {
		m.Queue = m.Queue[1:]
	}
	return next, nil
}

func (m *MockPlayer) Name() string { return "mock" }

// MockDownloader records download requests and answers with a scripted
// per-track outcome (default [services.OutcomeDownloaded]).
type MockDownloader struct {
	mu       sync.Mutex
	Outcomes map[string]services.Outcome
	Errs     map[string]error
	Requests []string
}

func NewMockDownloader() *MockDownloader {
	return &MockDownloader{
		Outcomes: map[string]services.Outcome{},
		Errs:     map[string]error{},
	}
}

func (m *MockDownloader) Download(ctx context.Context, track services.Track) (services.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, track.ID)
	if err, ok := m.Errs[track.ID]; ok {
		return services.OutcomeFailed, err
	}
	if outcome, ok := m.Outcomes[track.ID]; ok {
		return outcome, nil
	}
	return services.OutcomeDownloaded, nil
}

func (m *MockDownloader) Destination(track services.Track) string {
	return services.DestinationPath(track, "ogg")
}

func (m *MockDownloader) Name() string { return "mock" }

// Downloaded returns the track IDs handed to Download, in order.
func (m *MockDownloader) Downloaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Requests...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
