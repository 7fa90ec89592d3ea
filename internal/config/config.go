package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the node-supervisor.yaml file model. All fields are optional;
// zero values fall back to the defaults applied in Load.
type Config struct {
	ListenAddr string `yaml:"listen_address"`
	Port       string `yaml:"port"`

	ROSDistro string `yaml:"ros_distro"`

	// Verbose attaches an output-capture task to every launched node so
	// stdout/stderr lines appear in the node's event stream.
	Verbose bool `yaml:"verbose"`

	MonitorIntervalSeconds float64 `yaml:"monitor_interval_seconds"`
	LaunchTimeoutSeconds   float64 `yaml:"launch_timeout_seconds"`
	GraceTimeoutSeconds    float64 `yaml:"grace_timeout_seconds"`

	EventQueueCapacity int `yaml:"event_queue_capacity"`
}

// Load reads and parses the config file, applying defaults for anything
// unset. A missing file is not an error: the defaults alone make a
// runnable supervisor.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "0.0.0.0"
	}
	if c.Port == "" {
		c.Port = "8000"
	}
	if c.ROSDistro == "" {
		c.ROSDistro = "humble"
	}
	if c.MonitorIntervalSeconds <= 0 {
		c.MonitorIntervalSeconds = 3
	}
	if c.LaunchTimeoutSeconds <= 0 {
		c.LaunchTimeoutSeconds = 5
	}
	if c.GraceTimeoutSeconds <= 0 {
		c.GraceTimeoutSeconds = 5
	}
	if c.EventQueueCapacity <= 0 {
		c.EventQueueCapacity = 1024
	}
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string { return c.ListenAddr + ":" + c.Port }

func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalSeconds * float64(time.Second))
}

func (c *Config) LaunchTimeout() time.Duration {
	return time.Duration(c.LaunchTimeoutSeconds * float64(time.Second))
}

func (c *Config) GraceTimeout() time.Duration {
	return time.Duration(c.GraceTimeoutSeconds * float64(time.Second))
}
