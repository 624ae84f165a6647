package network

import (
	"net"
	"testing"

	"github.com/cuemby/netemu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/vishvananda/netlink"
)

func addr(cidr string) netlink.Addr {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	ipnet.IP = ip
	return netlink.Addr{IPNet: ipnet}
}

func TestPickAddress(t *testing.T) {
	tests := []struct {
		name  string
		addrs []netlink.Addr
		want  string
	}{
		{"skips loopback", []netlink.Addr{addr("127.0.0.1/8"), addr("10.0.0.5/24")}, "10.0.0.5"},
		{"skips link local", []netlink.Addr{addr("169.254.1.1/16"), addr("172.31.0.2/16")}, "172.31.0.2"},
		{"skips empty", []netlink.Addr{{}}, ""},
		{"none", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickAddress(tt.addrs))
		})
	}
}

func TestIsDefaultRoute(t *testing.T) {
	_, all, _ := net.ParseCIDR("0.0.0.0/0")
	_, subnet, _ := net.ParseCIDR("15.12.2.0/24")

	assert.True(t, isDefaultRoute(netlink.Route{}))
	assert.True(t, isDefaultRoute(netlink.Route{Dst: all}))
	assert.False(t, isDefaultRoute(netlink.Route{Dst: subnet}))
}

func TestResolveHostIPConfigured(t *testing.T) {
	ip, err := ResolveHostIP("10.0.0.1")
	assert.NoError(t, err)
	assert.Equal(t, "10.0.0.1", ip)

	_, err = ResolveHostIP("not-an-ip")
	assert.Error(t, err)
}

func TestNetemAttrs(t *testing.T) {
	attrs := netemAttrs(types.NetemConfig{
		Interface:           "eth0",
		PacketDelayMs:       2,
		PacketDelayJitterMs: 0.5,
		PacketLossRate:      0.02,
		PacketCorruptRate:   0.00001,
		PacketDuplicateRate: 0.00001,
		RateLimitMbit:       100,
	})

	assert.Equal(t, uint32(2000), attrs.Latency)
	assert.Equal(t, uint32(500), attrs.Jitter)
	assert.InDelta(t, 0.02, attrs.Loss, 1e-6)
	assert.Equal(t, uint64(12_500_000), attrs.Rate64)
}

func TestValidateNetem(t *testing.T) {
	assert.NoError(t, validateNetem(types.NetemConfig{Interface: "eth0", PacketLossRate: 2}))
	assert.Error(t, validateNetem(types.NetemConfig{}))
	assert.Error(t, validateNetem(types.NetemConfig{Interface: "eth0", PacketLossRate: 120}))
	assert.Error(t, validateNetem(types.NetemConfig{Interface: "eth0", PacketDelayMs: -1}))
}
