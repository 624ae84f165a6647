package network

import (
	"context"
	"fmt"
	"math"

	"github.com/cuemby/netemu/pkg/types"
	"github.com/vishvananda/netlink"
)

// Shaper installs netem qdiscs on the interfaces of a local container
type Shaper interface {
	Shape(ctx context.Context, pid int, cfgs []types.NetemConfig) error
}

// netemAttrs converts an interface config to netem attributes. Delays are
// in microseconds, rates in bytes per second, probabilities in percent.
func netemAttrs(cfg types.NetemConfig) netlink.NetemQdiscAttrs {
	attrs := netlink.NetemQdiscAttrs{
		Latency:     uint32(math.Round(cfg.PacketDelayMs * 1000)),
		Jitter:      uint32(math.Round(cfg.PacketDelayJitterMs * 1000)),
		Loss:        float32(cfg.PacketLossRate),
		Duplicate:   float32(cfg.PacketDuplicateRate),
		CorruptProb: float32(cfg.PacketCorruptRate),
	}
	if cfg.RateLimitMbit > 0 {
		attrs.Rate64 = uint64(cfg.RateLimitMbit * 1000 * 1000 / 8)
	}
	return attrs
}

func validateNetem(cfg types.NetemConfig) error {
	if cfg.Interface == "" {
		return fmt.Errorf("netem config without interface")
	}
	for name, p := range map[string]float64{
		"loss":      cfg.PacketLossRate,
		"duplicate": cfg.PacketDuplicateRate,
		"corrupt":   cfg.PacketCorruptRate,
	} {
		if p < 0 || p > 100 {
			return fmt.Errorf("%s probability %v on %s out of range", name, p, cfg.Interface)
		}
	}
	if cfg.PacketDelayMs < 0 || cfg.PacketDelayJitterMs < 0 || cfg.RateLimitMbit < 0 {
		return fmt.Errorf("negative delay or rate on %s", cfg.Interface)
	}
	return nil
}
