//go:build !linux

package sdcard

import "context"

// Run is not available on this platform.
func (w *Watcher) Run(ctx context.Context) error {
	return ErrUnsupported
}
