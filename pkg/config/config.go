package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	MetastoreBolt  = "bolt"
	MetastoreRedis = "redis"
)

// Config is the immutable daemon configuration, built once at startup
type Config struct {
	// HostIP is the address compared against physical_host_ip; discovered when empty
	HostIP     string `mapstructure:"host_ip"`
	GRPCAddr   string `mapstructure:"grpc_addr"`
	HealthAddr string `mapstructure:"health_addr"`
	DataDir    string `mapstructure:"data_dir"`
	// SocketPath serves the read-only API locally; empty disables it
	SocketPath string `mapstructure:"socket_path"`

	// MaxConcurrentRequests bounds the gRPC streams served at once
	MaxConcurrentRequests uint32 `mapstructure:"max_concurrent_requests"`

	// SettleDelay is waited after launching a sidecar process
	SettleDelay time.Duration `mapstructure:"settle_delay"`

	Log       LogConfig       `mapstructure:"log"`
	Metastore MetastoreConfig `mapstructure:"metastore"`
	SSH       SSHConfig       `mapstructure:"ssh"`
	Sidecar   SidecarConfig   `mapstructure:"sidecar"`
	FanOut    FanOutConfig    `mapstructure:"fanout"`
	Probes    ProbesConfig    `mapstructure:"probes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type MetastoreConfig struct {
	Driver   string `mapstructure:"driver"`
	RedisURL string `mapstructure:"redis_url"`
}

type SSHConfig struct {
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Port           int           `mapstructure:"port"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

type SidecarConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type FanOutConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	NodeTimeout time.Duration `mapstructure:"node_timeout"`
}

// ProbesConfig holds the local ports probed by node status
type ProbesConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	PostgresPort     int           `mapstructure:"postgres_port"`
	NginxPort        int           `mapstructure:"nginx_port"`
	FlaskPort        int           `mapstructure:"flask_port"`
	CAdvisorPort     int           `mapstructure:"cadvisor_port"`
	PrometheusPort   int           `mapstructure:"prometheus_port"`
	GrafanaPort      int           `mapstructure:"grafana_port"`
	PgAdminPort      int           `mapstructure:"pgadmin_port"`
	NodeExporterPort int           `mapstructure:"node_exporter_port"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("grpc_addr", "0.0.0.0:50041")
	v.SetDefault("health_addr", "0.0.0.0:9091")
	v.SetDefault("data_dir", "/var/lib/netemu")
	v.SetDefault("socket_path", "/var/run/netemu.sock")
	v.SetDefault("max_concurrent_requests", 10)
	v.SetDefault("settle_delay", "2s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("metastore.driver", MetastoreBolt)
	v.SetDefault("metastore.redis_url", "redis://localhost:6379/0")
	v.SetDefault("ssh.user", "root")
	v.SetDefault("ssh.password", "root")
	v.SetDefault("ssh.port", 22)
	v.SetDefault("ssh.dial_timeout", "10s")
	v.SetDefault("ssh.command_timeout", "60s")
	v.SetDefault("sidecar.timeout", "5s")
	v.SetDefault("fanout.concurrency", 8)
	v.SetDefault("fanout.node_timeout", "5m")
	v.SetDefault("probes.timeout", "1s")
	v.SetDefault("probes.postgres_port", 5432)
	v.SetDefault("probes.nginx_port", 80)
	v.SetDefault("probes.flask_port", 7777)
	v.SetDefault("probes.cadvisor_port", 8080)
	v.SetDefault("probes.prometheus_port", 9090)
	v.SetDefault("probes.grafana_port", 3000)
	v.SetDefault("probes.pgadmin_port", 7778)
	v.SetDefault("probes.node_exporter_port", 9100)
}

// NewViper returns a viper instance with defaults and NETEMU_ env binding
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("netemu")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file into v and decodes it
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied
func Default() *Config {
	cfg, err := Load(NewViper(), "")
	if err != nil {
		// defaults always validate
		panic(err)
	}
	return cfg
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	var errs []error
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc_addr must not be empty"))
	}
	if c.HealthAddr == "" {
		errs = append(errs, errors.New("health_addr must not be empty"))
	}
	switch c.Metastore.Driver {
	case MetastoreBolt:
		if c.DataDir == "" {
			errs = append(errs, errors.New("data_dir is required by the bolt metastore"))
		}
	case MetastoreRedis:
		if c.Metastore.RedisURL == "" {
			errs = append(errs, errors.New("metastore.redis_url is required by the redis metastore"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown metastore driver %q", c.Metastore.Driver))
	}
	if c.SSH.DialTimeout <= 0 || c.SSH.CommandTimeout <= 0 {
		errs = append(errs, errors.New("ssh timeouts must be positive"))
	}
	if c.Sidecar.Timeout <= 0 {
		errs = append(errs, errors.New("sidecar.timeout must be positive"))
	}
	if c.FanOut.Concurrency <= 0 {
		errs = append(errs, errors.New("fanout.concurrency must be positive"))
	}
	if c.FanOut.NodeTimeout <= 0 {
		errs = append(errs, errors.New("fanout.node_timeout must be positive"))
	}
	return errors.Join(errs...)
}
