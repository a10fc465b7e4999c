package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr string `yaml:"addr"`
}

type Storage struct {
	// Backend is "bolt" (default, embedded) or "postgres".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	DSN     string `yaml:"dsn"`
	// Ephemeral resets the store once at startup: a session-scoped
	// corpus instead of one that survives restarts.
	Ephemeral bool `yaml:"ephemeral"`
}

type Detector struct {
	Contamination float64 `yaml:"contamination"`
	MinSamples    int     `yaml:"minSamples"`
	Seed          int64   `yaml:"seed"`
	Trees         int     `yaml:"trees"`
	SampleSize    int     `yaml:"sampleSize"`
}

type Slack struct {
	Enabled bool   `yaml:"enabled"`
	Webhook string `yaml:"webhook"`
}

type Tracing struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	SampleRatio  float64 `yaml:"sampleRatio"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Storage  Storage  `yaml:"storage"`
	Detector Detector `yaml:"detector"`
	Slack    Slack    `yaml:"slack"`
	Tracing  Tracing  `yaml:"tracing"`
}

func Load(path string) (*Config, error) {
	var c Config
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "bolt"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/logwise.db"
	}
	if c.Detector.Contamination == 0 {
		c.Detector.Contamination = 0.1
	}
	if c.Detector.MinSamples == 0 {
		c.Detector.MinSamples = 10
	}
	if c.Detector.Seed == 0 {
		c.Detector.Seed = 42
	}
	if c.Detector.Trees == 0 {
		c.Detector.Trees = 100
	}
	if c.Detector.SampleSize == 0 {
		c.Detector.SampleSize = 256
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "logwise"
	}
	if c.Tracing.OTLPEndpoint == "" {
		c.Tracing.OTLPEndpoint = "localhost:4317"
	}
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1.0
	}
}
