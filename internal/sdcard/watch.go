// Package sdcard waits for the camera's SD card to be mounted and runs a
// handler once per insertion.
//
// On Linux the watcher listens for udev block partition events over netlink
// and then polls until the configured source directory appears, since the
// desktop automounter finishes some time after the kernel event.
package sdcard

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"clipreel/internal/logging"
)

// ErrUnsupported is returned by Run on platforms without udev.
var ErrUnsupported = errors.New("sd card watch requires linux udev")

// Handler is invoked once the source directory is available. device is the
// block device from the triggering event, or empty for a card that was
// already mounted when the watcher started.
type Handler func(ctx context.Context, device string) error

// Watcher runs a Handler per card insertion.
type Watcher struct {
	sourceDir string
	poll      time.Duration
	mountWait time.Duration
	logger    *slog.Logger
	handler   Handler
}

// New builds a Watcher for sourceDir. poll controls how often the directory
// is checked after an event.
func New(sourceDir string, poll time.Duration, logger *slog.Logger, handler Handler) *Watcher {
	if poll <= 0 {
		poll = time.Second
	}
	return &Watcher{
		sourceDir: sourceDir,
		poll:      poll,
		mountWait: 2 * time.Minute,
		logger:    logging.NewComponentLogger(logger, "sdcard"),
		handler:   handler,
	}
}

// Present reports whether the source directory currently exists.
func (w *Watcher) Present() bool {
	info, err := os.Stat(w.sourceDir)
	return err == nil && info.IsDir()
}

// WaitForDir polls until the source directory exists or timeout elapses.
func (w *Watcher) WaitForDir(ctx context.Context, timeout time.Duration) bool {
	return w.waitUntil(ctx, timeout, w.Present)
}

// WaitForRemoval polls until the source directory is gone.
func (w *Watcher) WaitForRemoval(ctx context.Context) bool {
	return w.waitUntil(ctx, 0, func() bool { return !w.Present() })
}

func (w *Watcher) waitUntil(ctx context.Context, timeout time.Duration, cond func() bool) bool {
	if cond() {
		return true
	}
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline:
			return false
		case <-ticker.C:
			if cond() {
				return true
			}
		}
	}
}

// trigger runs the handler once the card is mounted and then waits for the
// card to be removed so udev "change" events from the same card do not
// start a second run.
func (w *Watcher) trigger(ctx context.Context, device string) {
	if !w.WaitForDir(ctx, w.mountWait) {
		if ctx.Err() == nil {
			w.logger.Debug("block device appeared but source directory did not",
				logging.String("device", device),
				logging.String("source_dir", w.sourceDir),
			)
		}
		return
	}

	w.logger.Info("sd card detected",
		logging.String(logging.FieldEventType, "sdcard_detected"),
		logging.String("device", device),
		logging.String("source_dir", w.sourceDir),
	)
	if w.handler != nil {
		if err := w.handler(ctx, device); err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.WarnWithContext(w.logger, "sd card handler failed", "sdcard_handler_failed",
				logging.Error(err),
				logging.String("device", device),
				logging.String(logging.FieldImpact, "card not processed; reinsert to retry"),
			)
		}
	}

	w.logger.Info("waiting for sd card removal", logging.String("source_dir", w.sourceDir))
	w.WaitForRemoval(ctx)
}
