// Package config loads the manager daemon configuration from a YAML file,
// NETEMU_* environment variables and command line flags (via viper). The
// resulting Config is built once in main and passed by pointer to every
// component; nothing mutates it afterwards.
package config
