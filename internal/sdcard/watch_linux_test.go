//go:build linux

package sdcard

import (
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

func TestPartitionMatcher(t *testing.T) {
	matcher := partitionMatcher()

	cases := []struct {
		name  string
		event netlink.UEvent
		want  bool
	}{
		{
			name:  "partition add",
			event: netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"SUBSYSTEM": "block", "DEVTYPE": "partition"}},
			want:  true,
		},
		{
			name:  "partition change",
			event: netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{"SUBSYSTEM": "block", "DEVTYPE": "partition"}},
			want:  true,
		},
		{
			name:  "whole disk",
			event: netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"SUBSYSTEM": "block", "DEVTYPE": "disk"}},
			want:  false,
		},
		{
			name:  "partition remove",
			event: netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{"SUBSYSTEM": "block", "DEVTYPE": "partition"}},
			want:  false,
		},
	}
	for _, tc := range cases {
		if got := matcher.Evaluate(tc.event); got != tc.want {
			t.Errorf("%s: Evaluate = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDeviceName(t *testing.T) {
	if got := deviceName(netlink.UEvent{Env: map[string]string{"DEVNAME": "sdb1"}}); got != "/dev/sdb1" {
		t.Fatalf("deviceName = %q", got)
	}
	if got := deviceName(netlink.UEvent{Env: map[string]string{"DEVNAME": "/dev/mmcblk0p1"}}); got != "/dev/mmcblk0p1" {
		t.Fatalf("deviceName = %q", got)
	}
}
