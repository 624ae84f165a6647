package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/netemu/pkg/api"
	"github.com/cuemby/netemu/pkg/log"
	"github.com/cuemby/netemu/pkg/manager"
	"github.com/cuemby/netemu/pkg/metrics"
	"github.com/cuemby/netemu/pkg/network"
	"github.com/cuemby/netemu/pkg/runtime"
	"github.com/cuemby/netemu/pkg/storage"
	"github.com/spf13/cobra"
)

var managerCmd = &cobra.Command{
	Use:   "manager",
	Short: "Run the cluster manager of this host",
}

var managerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the cluster manager",
	Long: `Start the cluster manager daemon of this physical server.

The manager serves the netemu.ClusterManager gRPC API and acts only on the
emulated containers whose physical_host_ip equals the host IP of this
server. The host IP is discovered from the default route unless set with
--host-ip.`,
	RunE: runManagerStart,
}

func init() {
	f := managerStartCmd.Flags()
	f.String("host-ip", "", "IP of this host (default: address of the default route interface)")
	f.String("grpc-addr", "0.0.0.0:50041", "Address of the gRPC API")
	f.String("health-addr", "0.0.0.0:9091", "Address of the health and metrics endpoints")
	f.String("data-dir", "/var/lib/netemu", "Data directory of the bolt metastore")
	f.String("metastore", "bolt", "Metastore driver (bolt, redis)")
	f.String("redis-url", "redis://localhost:6379/0", "URL of the redis metastore")
	for flag, key := range map[string]string{
		"host-ip":     "host_ip",
		"grpc-addr":   "grpc_addr",
		"health-addr": "health_addr",
		"data-dir":    "data_dir",
		"metastore":   "metastore.driver",
		"redis-url":   "metastore.redis_url",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}

	managerCmd.AddCommand(managerStartCmd)
}

func runManagerStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := log.WithComponent("main")

	hostIP, err := network.ResolveHostIP(cfg.HostIP)
	if err != nil {
		return fmt.Errorf("failed to determine host IP: %v", err)
	}
	cfg.HostIP = hostIP

	store, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open metastore: %v", err)
	}
	defer store.Close()

	opts := manager.Options{Config: cfg, Store: store}
	docker, err := runtime.NewDockerRuntime()
	if err != nil {
		logger.Warn().Err(err).Msg("Docker engine unavailable, container operations disabled")
	} else {
		defer docker.Close()
		opts.Runtime = docker
	}

	mgr, err := manager.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create manager: %v", err)
	}

	collector := metrics.NewCollector(store, hostIP)
	collector.Start()
	defer collector.Stop()

	apiServer := api.NewServer(mgr, cfg.MaxConcurrentRequests)
	healthServer := api.NewHealthServer(mgr)
	errCh := make(chan error, 3)
	go func() {
		if err := apiServer.Start(cfg.GRPCAddr); err != nil {
			errCh <- fmt.Errorf("API server error: %v", err)
		}
	}()
	go func() {
		if err := healthServer.Start(cfg.HealthAddr); err != nil {
			errCh <- fmt.Errorf("health server error: %v", err)
		}
	}()
	if cfg.SocketPath != "" {
		go func() {
			if err := apiServer.StartUnix(cfg.SocketPath); err != nil {
				logger.Warn().Err(err).Str("socket", cfg.SocketPath).Msg("Local socket disabled")
			}
		}()
	}

	logger.Info().
		Str("host_ip", hostIP).
		Str("grpc_addr", cfg.GRPCAddr).
		Str("metastore", cfg.Metastore.Driver).
		Int("controllers", len(mgr.Registry().Names())).
		Msg("Cluster manager running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("Shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("Server failed")
	}

	apiServer.Stop()
	return nil
}
