package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration for the offload binary, loaded
// from a YAML file. Missing fields keep their defaults.
type Config struct {
	Logger struct {
		Verbosity string `yaml:"verbosity"`
	} `yaml:"logger"`
	Server struct {
		ListenAddress string `yaml:"listenAddress"`
		ListenPort    int    `yaml:"listenPort"`
		MetricsPort   int    `yaml:"metricsPort"`
		VectorSize    int    `yaml:"vectorSize"`
	} `yaml:"server"`
	KMeans struct {
		Points   int   `yaml:"points"`
		Clusters int   `yaml:"clusters"`
		Seed     int64 `yaml:"seed"`
	} `yaml:"kmeans"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Logger.Verbosity = "info"
	cfg.Server.ListenAddress = "127.0.0.1"
	cfg.Server.ListenPort = 8081
	cfg.Server.MetricsPort = 9090
	cfg.Server.VectorSize = 256
	cfg.KMeans.Points = 10
	cfg.KMeans.Clusters = 2
	return cfg
}

// LoadConfig reads a YAML config file, layering it over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}
