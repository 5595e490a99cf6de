//go:build linux

package sdcard

import (
	"context"
	"fmt"

	"github.com/pilebones/go-udev/netlink"

	"clipreel/internal/logging"
)

// Run listens for card insertions until ctx is cancelled. A card already
// mounted at start is handled immediately.
func (w *Watcher) Run(ctx context.Context) error {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("connect udev netlink socket: %w", err)
	}
	defer conn.Close()

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, partitionMatcher())
	defer close(monitorQuit)

	w.logger.Info("watching for sd card",
		logging.String(logging.FieldEventType, "sdcard_watch_started"),
		logging.String("source_dir", w.sourceDir),
	)
	if w.Present() {
		w.trigger(ctx, "")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case uevent := <-queue:
			device := deviceName(uevent)
			w.logger.Debug("block partition event",
				logging.String("action", string(uevent.Action)),
				logging.String("device", device),
			)
			w.trigger(ctx, device)
			drain(queue)
		case err := <-errs:
			w.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "card insertions may be missed"),
			)
		}
	}
}

// partitionMatcher matches SUBSYSTEM=block, DEVTYPE=partition, ACTION=add|change.
func partitionMatcher() netlink.Matcher {
	action := "add|change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"DEVTYPE":   "partition",
		},
	})
	return rules
}

// drain discards events that queued up while a run was in progress.
func drain(queue <-chan netlink.UEvent) {
	for {
		select {
		case <-queue:
		default:
			return
		}
	}
}

func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if devname[0] == '/' {
			return devname
		}
		return "/dev/" + devname
	}
	return uevent.KObj
}
