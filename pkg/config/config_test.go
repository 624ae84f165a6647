package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0:50041", cfg.GRPCAddr)
	assert.Equal(t, MetastoreBolt, cfg.Metastore.Driver)
	assert.Equal(t, 22, cfg.SSH.Port)
	assert.Equal(t, 60*time.Second, cfg.SSH.CommandTimeout)
	assert.Equal(t, 5*time.Second, cfg.Sidecar.Timeout)
	assert.Equal(t, 8, cfg.FanOut.Concurrency)
	assert.Equal(t, 5432, cfg.Probes.PostgresPort)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netemu.yaml")
	content := `
host_ip: 172.31.212.92
metastore:
  driver: redis
  redis_url: redis://metastore:6379/1
ssh:
  command_timeout: 30s
fanout:
  concurrency: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("NETEMU_SIDECAR_TIMEOUT", "2s")

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, "172.31.212.92", cfg.HostIP)
	assert.Equal(t, MetastoreRedis, cfg.Metastore.Driver)
	assert.Equal(t, "redis://metastore:6379/1", cfg.Metastore.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.SSH.CommandTimeout)
	assert.Equal(t, 3, cfg.FanOut.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Sidecar.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Metastore.Driver = "sqlite" }, wantErr: "unknown metastore driver"},
		{name: "empty grpc addr", mutate: func(c *Config) { c.GRPCAddr = "" }, wantErr: "grpc_addr"},
		{name: "zero ssh timeout", mutate: func(c *Config) { c.SSH.CommandTimeout = 0 }, wantErr: "ssh timeouts"},
		{name: "zero concurrency", mutate: func(c *Config) { c.FanOut.Concurrency = 0 }, wantErr: "fanout.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
