package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Reader.Saturation != "max" {
		t.Errorf("Expected saturation max, got %s", cfg.Reader.Saturation)
	}
	if cfg.Geometry.ContourThreshold != 250 {
		t.Errorf("Expected contour threshold 250, got %d", cfg.Geometry.ContourThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default configuration to be valid, got %v", err)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "ssicube.yaml")

	cfg := DefaultConfig()
	cfg.Reader.Saturation = "nan"
	cfg.Fetch.TimeoutSeconds = 5
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded.Reader.Saturation != "nan" {
		t.Errorf("Expected saturation nan, got %s", loaded.Reader.Saturation)
	}
	if loaded.Fetch.TimeoutSeconds != 5 {
		t.Errorf("Expected timeout 5, got %d", loaded.Fetch.TimeoutSeconds)
	}
}

func TestLoadMissingConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for missing file, got %v", err)
	}
	if cfg.Photometry.Model != "minnaert" {
		t.Errorf("Expected default model minnaert, got %s", cfg.Photometry.Model)
	}
}

func TestEnvironmentOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssicube.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("Failed to create config: %v", err)
	}

	t.Setenv("SSI_SATURATION", "nan")
	t.Setenv("SSI_CONTOUR_THRESHOLD", "10")
	t.Setenv("SSI_FETCH_USE_CACHE", "false")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Reader.Saturation != "nan" {
		t.Errorf("Expected saturation nan from environment, got %s", cfg.Reader.Saturation)
	}
	if cfg.Geometry.ContourThreshold != 10 {
		t.Errorf("Expected contour threshold 10 from environment, got %d", cfg.Geometry.ContourThreshold)
	}
	if cfg.Fetch.UseCache {
		t.Error("Expected cache disabled from environment")
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"syntax":     "reader: [",
		"saturation": "reader:\n  saturation: clip\n",
		"model":      "photometry:\n  model: lambert\n",
		"variogram":  "interpolation:\n  variogram: linear\n",
		"radius":     "interpolation:\n  radius: 0\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Errorf("Expected error for %s, got nil", name)
			}
		})
	}
}
