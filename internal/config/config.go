package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr        = ":8080"
	DefaultUploadsDir  = "data/uploads"
	DefaultExportsDir  = "data/exports"
	DefaultMaxUploadMB = 20
	DefaultQueueSize   = 16

	DefaultMass   = 10.0
	DefaultScale  = 100.0
	DefaultWidth  = 512
	DefaultMethod = "weak"
	DefaultFrames = 36
)

type Config struct {
	Addr        string       `yaml:"addr"`
	UploadsDir  string       `yaml:"uploads_dir"`
	ExportsDir  string       `yaml:"exports_dir"`
	MaxUploadMB int64        `yaml:"max_upload_mb"`
	QueueSize   int          `yaml:"queue_size"`
	Render      RenderConfig `yaml:"render"`
}

// RenderConfig holds the default lensing parameters applied when a request
// or command does not override them.
type RenderConfig struct {
	Mass   float64 `yaml:"mass"`
	Scale  float64 `yaml:"scale"`
	Width  int     `yaml:"width"`
	Method string  `yaml:"method"`
	Frames int     `yaml:"frames"`
}

func DefaultConfig() *Config {
	return &Config{
		Addr:        DefaultAddr,
		UploadsDir:  DefaultUploadsDir,
		ExportsDir:  DefaultExportsDir,
		MaxUploadMB: DefaultMaxUploadMB,
		QueueSize:   DefaultQueueSize,
		Render: RenderConfig{
			Mass:   DefaultMass,
			Scale:  DefaultScale,
			Width:  DefaultWidth,
			Method: DefaultMethod,
			Frames: DefaultFrames,
		},
	}
}

// Load reads path and unmarshals it over the defaults, so a partial file
// only overrides the keys it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
