// Package config loads the portal's cluster connection settings and
// tier template mapping.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClusterConfig holds the management API connection settings.
type ClusterConfig struct {
	// Host of the cluster API, e.g. "192.168.56.15".
	Host string `yaml:"host"`
	// User in realm notation, e.g. "root@pam".
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	VerifyTLS bool   `yaml:"verify_tls"`
	// PreferredNode is tried first during node selection.
	PreferredNode string `yaml:"preferred_node"`
}

// Config is the full portal configuration.
type Config struct {
	Cluster ClusterConfig `yaml:"cluster"`
	// Templates maps a tier name to the template reference cloned for
	// it. References may be numeric identifiers or container names.
	Templates map[string]string `yaml:"templates"`
}

// Load reads the configuration from a YAML file, applies environment
// overrides and defaults, and validates the result. path may be empty
// to configure from environment and defaults alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		// #nosec G304
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnv overrides file values with the environment the deployment
// scripts export.
func (c *Config) applyEnv() {
	if v := os.Getenv("PROXMOX_HOST"); v != "" {
		c.Cluster.Host = v
	}
	if v := os.Getenv("PROXMOX_USER"); v != "" {
		c.Cluster.User = v
	}
	if v := os.Getenv("PROXMOX_PASSWORD"); v != "" {
		c.Cluster.Password = v
	}
	if v := os.Getenv("PROXMOX_VERIFY_SSL"); v != "" {
		c.Cluster.VerifyTLS = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("PROXMOX_NODE"); v != "" {
		c.Cluster.PreferredNode = v
	}
}

func (c *Config) applyDefaults() {
	if c.Cluster.User == "" {
		c.Cluster.User = "root@pam"
	}
	if c.Cluster.PreferredNode == "" {
		c.Cluster.PreferredNode = "px1"
	}
	if len(c.Templates) == 0 {
		c.Templates = map[string]string{
			"bronze": "3335",
			"silver": "3336",
			"gold":   "3337",
		}
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Cluster.Host == "" {
		return fmt.Errorf("cluster host must be set")
	}
	for tier, ref := range c.Templates {
		if ref == "" {
			return fmt.Errorf("template reference for tier %q must not be empty", tier)
		}
	}
	return nil
}
