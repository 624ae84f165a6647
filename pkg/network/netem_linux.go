//go:build linux

package network

import (
	"context"
	"fmt"

	"github.com/containernetworking/plugins/pkg/ns"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/vishvananda/netlink"
)

// NetlinkShaper enters the network namespace of a container process and
// replaces the root qdisc of each configured interface
type NetlinkShaper struct{}

func (NetlinkShaper) Shape(ctx context.Context, pid int, cfgs []types.NetemConfig) error {
	for _, cfg := range cfgs {
		if err := validateNetem(cfg); err != nil {
			return err
		}
	}

	netns, err := ns.GetNS(fmt.Sprintf("/proc/%d/ns/net", pid))
	if err != nil {
		return fmt.Errorf("failed to get namespace of pid %d: %w", pid, err)
	}
	defer netns.Close()

	return netns.Do(func(_ ns.NetNS) error {
		for _, cfg := range cfgs {
			link, err := netlink.LinkByName(cfg.Interface)
			if err != nil {
				return fmt.Errorf("failed to get link %s: %w", cfg.Interface, err)
			}
			qdisc := netlink.NewNetem(netlink.QdiscAttrs{
				LinkIndex: link.Attrs().Index,
				Handle:    netlink.MakeHandle(1, 0),
				Parent:    netlink.HANDLE_ROOT,
			}, netemAttrs(cfg))
			if err := netlink.QdiscReplace(qdisc); err != nil {
				return fmt.Errorf("failed to set netem on %s: %w", cfg.Interface, err)
			}
		}
		return nil
	})
}
