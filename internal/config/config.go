package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all virtadm configuration.
type Config struct {
	// StorePath is the location of the conversion path store database.
	StorePath string `mapstructure:"store_path"`

	// HostsPath is the hosts file edited by the Debian network-compat mode.
	HostsPath string `mapstructure:"hosts_path"`

	// NetplanDir is where Ubuntu netplan fragments are written.
	NetplanDir string `mapstructure:"netplan_dir"`

	// VirshBin is the hypervisor control binary.
	VirshBin string `mapstructure:"virsh_bin"`

	// QemuImgBin is the image conversion binary.
	QemuImgBin string `mapstructure:"qemu_img_bin"`

	// ToolTimeoutSec bounds each external tool invocation. 0 disables the bound.
	ToolTimeoutSec int `mapstructure:"tool_timeout_sec"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	storePath := "paths.db"
	if paths, err := GetPaths(); err == nil {
		storePath = paths.StoreFile
	}

	return &Config{
		StorePath:      storePath,
		HostsPath:      "/etc/hosts",
		NetplanDir:     "/etc/netplan",
		VirshBin:       "virsh",
		QemuImgBin:     "qemu-img",
		ToolTimeoutSec: 0,
	}
}

// Global holds the loaded configuration.
var Global *Config

// Load reads configuration from file, environment, and defaults.
func Load() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to determine paths: %w", err)
	}

	defaults := DefaultConfig()
	viper.SetDefault("store_path", defaults.StorePath)
	viper.SetDefault("hosts_path", defaults.HostsPath)
	viper.SetDefault("netplan_dir", defaults.NetplanDir)
	viper.SetDefault("virsh_bin", defaults.VirshBin)
	viper.SetDefault("qemu_img_bin", defaults.QemuImgBin)
	viper.SetDefault("tool_timeout_sec", defaults.ToolTimeoutSec)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(paths.DataDir)

	viper.SetEnvPrefix("VIRTADM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Missing config file is fine; defaults and env apply.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	Global = cfg
	return nil
}
