package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sidetrack/internal/shared"
)

// Daemon runs the listener and processor loops concurrently on their own
// intervals. The two loops share the backlog store and nothing else.
type Daemon struct {
	listener  *Listener
	processor *Processor
	logger    *log.Logger

	// ListenInterval is the playback poll cadence.
	ListenInterval time.Duration
	// ProcessInterval is the backlog drain cadence.
	ProcessInterval time.Duration
}

// NewDaemon wires a daemon from its two loops and the configured intervals
// (in seconds).
func NewDaemon(listener *Listener, processor *Processor, intervals shared.IntervalsConfig, logger *log.Logger) *Daemon {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	listen := time.Duration(intervals.ListenCheck) * time.Second
	if listen <= 0 {
		listen = 30 * time.Second
	}
	process := time.Duration(intervals.DownloadProcess) * time.Second
	if process <= 0 {
		process = 15 * time.Minute
	}

	return &Daemon{
		listener:        listener,
		processor:       processor,
		logger:          logger,
		ListenInterval:  listen,
		ProcessInterval: process,
	}
}

// Run blocks until ctx is cancelled, then waits for both loops to wind down.
// The in-flight download (if any) completes before Run returns.
func (d *Daemon) Run(ctx context.Context, progress chan<- ProgressUpdate) {
	d.logger.Info("daemon starting",
		"listen_interval", d.ListenInterval,
		"process_interval", d.ProcessInterval)

	var wg sync.WaitGroup

	if d.listener != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.listener.Run(ctx, d.ListenInterval, progress)
		}()
	}

	if d.processor != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.processor.Run(ctx, d.ProcessInterval, progress)
		}()
	}

	wg.Wait()
	d.logger.Info("daemon stopped")
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
