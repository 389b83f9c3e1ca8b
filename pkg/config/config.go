// Package config provides configuration loading and management for ssicube.
// It handles loading configuration from YAML files, overlays environment
// variables and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Cube reader parameters
	Reader struct {
		// MaxLabelBytes bounds how much of a file is scanned for the label
		MaxLabelBytes int64 `yaml:"maxLabelBytes" env:"SSI_MAX_LABEL_BYTES"`

		// Saturation is what high saturation samples become: max or nan
		Saturation string `yaml:"saturation" env:"SSI_SATURATION"`
	} `yaml:"reader"`

	// Geometry parameters
	Geometry struct {
		// ContourThreshold is the smallest number of points a traced contour may have
		ContourThreshold int `yaml:"contourThreshold" env:"SSI_CONTOUR_THRESHOLD"`
	} `yaml:"geometry"`

	// Photometry parameters
	Photometry struct {
		// Model is the photometric model fitted by default (minnaert or hapke)
		Model string `yaml:"model" env:"SSI_PHOTOMETRY_MODEL"`
	} `yaml:"photometry"`

	// Gap filling parameters
	Interpolation struct {
		// Variogram is the kriging variogram model (spherical, exponential or gaussian)
		Variogram string `yaml:"variogram" env:"SSI_VARIOGRAM"`

		// Neighbors is the maximum number of valid pixels used per estimate
		Neighbors int `yaml:"neighbors" env:"SSI_NEIGHBORS"`

		// Radius is the search radius in pixels
		Radius float64 `yaml:"radius" env:"SSI_FILL_RADIUS"`
	} `yaml:"interpolation"`

	// Data portal parameters
	Fetch struct {
		// BaseURL is the root of the portal the cubes are downloaded from
		BaseURL string `yaml:"baseURL" env:"SSI_FETCH_BASE_URL"`

		// CacheDir is where downloaded cubes are kept
		CacheDir string `yaml:"cacheDir" env:"SSI_FETCH_CACHE_DIR"`

		// TimeoutSeconds bounds a single download
		TimeoutSeconds int `yaml:"timeoutSeconds" env:"SSI_FETCH_TIMEOUT"`

		// UseCache reuses cubes already downloaded
		UseCache bool `yaml:"useCache" env:"SSI_FETCH_USE_CACHE"`
	} `yaml:"fetch"`

	// Output parameters
	Output struct {
		// Dir is where exported arrays and reports are written
		Dir string `yaml:"dir" env:"SSI_OUTPUT_DIR"`

		// LogLevel is the zerolog level name (debug, info, warn, error)
		LogLevel string `yaml:"logLevel" env:"SSI_LOG_LEVEL"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default reader parameters
	cfg.Reader.MaxLabelBytes = 1 << 20
	cfg.Reader.Saturation = "max"

	cfg.Geometry.ContourThreshold = 250

	cfg.Photometry.Model = "minnaert"

	cfg.Interpolation.Variogram = "spherical"
	cfg.Interpolation.Neighbors = 16
	cfg.Interpolation.Radius = 8

	// Set default fetch parameters
	cfg.Fetch.BaseURL = "https://pds-imaging.jpl.nasa.gov/data/galileo"
	cfg.Fetch.CacheDir = filepath.Join(os.TempDir(), "ssicube")
	cfg.Fetch.TimeoutSeconds = 60
	cfg.Fetch.UseCache = true

	// Set default output parameters
	cfg.Output.Dir = "output"
	cfg.Output.LogLevel = "info"

	return cfg
}

// LoadConfig loads configuration from a YAML file and then applies SSI_*
// environment variables. If the file doesn't exist, the defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); err == nil {
		// Read config file
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// Parse YAML
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have a fixed set of choices or a range
func (c *Config) Validate() error {
	switch strings.ToLower(c.Reader.Saturation) {
	case "max", "nan":
	default:
		return fmt.Errorf("invalid saturation policy %q (must be max or nan)", c.Reader.Saturation)
	}
	switch strings.ToLower(c.Photometry.Model) {
	case "minnaert", "hapke":
	default:
		return fmt.Errorf("invalid photometric model %q (must be minnaert or hapke)", c.Photometry.Model)
	}
	switch strings.ToLower(c.Interpolation.Variogram) {
	case "spherical", "exponential", "gaussian":
	default:
		return fmt.Errorf("invalid variogram %q (must be spherical, exponential or gaussian)", c.Interpolation.Variogram)
	}
	if c.Interpolation.Neighbors <= 0 || c.Interpolation.Radius <= 0 {
		return fmt.Errorf("interpolation neighbors and radius must be positive")
	}
	if c.Reader.MaxLabelBytes <= 0 {
		return fmt.Errorf("maxLabelBytes must be positive, got %d", c.Reader.MaxLabelBytes)
	}
	if c.Geometry.ContourThreshold < 0 {
		return fmt.Errorf("contourThreshold must not be negative, got %d", c.Geometry.ContourThreshold)
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
