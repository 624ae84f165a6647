package storage

import (
	"fmt"
	"os"

	"github.com/cuemby/netemu/pkg/config"
)

// Open returns the metastore selected by cfg.Metastore.Driver
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Metastore.Driver {
	case config.MetastoreBolt:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %v", err)
		}
		return NewBoltStore(cfg.DataDir)
	case config.MetastoreRedis:
		return NewRedisStore(RedisOptions{URL: cfg.Metastore.RedisURL, Timeout: cfg.Sidecar.Timeout})
	default:
		return nil, fmt.Errorf("unknown metastore driver %q", cfg.Metastore.Driver)
	}
}
