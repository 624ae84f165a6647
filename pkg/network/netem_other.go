//go:build !linux

package network

import (
	"context"
	"errors"

	"github.com/cuemby/netemu/pkg/types"
)

// NetlinkShaper is only available on linux
type NetlinkShaper struct{}

func (NetlinkShaper) Shape(ctx context.Context, pid int, cfgs []types.NetemConfig) error {
	return errors.New("netem shaping requires linux")
}
