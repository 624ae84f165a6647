package network

import (
	"errors"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// ErrNoAddress is returned when no usable IPv4 address is configured
var ErrNoAddress = errors.New("no global unicast IPv4 address found")

// HostIP returns the IPv4 address of the interface carrying the default
// route, falling back to the first global unicast address of any link
func HostIP() (string, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return "", fmt.Errorf("failed to list routes: %w", err)
	}

	for _, r := range routes {
		if !isDefaultRoute(r) || r.LinkIndex <= 0 {
			continue
		}
		link, err := netlink.LinkByIndex(r.LinkIndex)
		if err != nil {
			continue
		}
		addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
		if err != nil {
			continue
		}
		if ip := pickAddress(addrs); ip != "" {
			return ip, nil
		}
	}

	addrs, err := netlink.AddrList(nil, netlink.FAMILY_V4)
	if err != nil {
		return "", fmt.Errorf("failed to list addresses: %w", err)
	}
	if ip := pickAddress(addrs); ip != "" {
		return ip, nil
	}
	return "", ErrNoAddress
}

func isDefaultRoute(r netlink.Route) bool {
	if r.Dst == nil {
		return true
	}
	ones, _ := r.Dst.Mask.Size()
	return ones == 0 && r.Dst.IP.IsUnspecified()
}

// pickAddress returns the first global unicast IPv4 address
func pickAddress(addrs []netlink.Addr) string {
	for _, a := range addrs {
		if a.IPNet == nil {
			continue
		}
		ip := a.IP.To4()
		if ip == nil || !ip.IsGlobalUnicast() {
			continue
		}
		return ip.String()
	}
	return ""
}

// ResolveHostIP returns configured when set, otherwise the discovered address
func ResolveHostIP(configured string) (string, error) {
	if configured != "" {
		if net.ParseIP(configured) == nil {
			return "", fmt.Errorf("invalid host ip %q", configured)
		}
		return configured, nil
	}
	return HostIP()
}
