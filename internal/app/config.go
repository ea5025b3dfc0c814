package app

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GeminiAPIKey string  `yaml:"gemini_api_key"`
	DefaultModel string  `yaml:"default_model"`
	Mode         string  `yaml:"mode"`
	StorageRoot  string  `yaml:"storage_root"`
	Temperature  float64 `yaml:"temperature"`
	CodeStyle    string  `yaml:"code_style"`
	IncludeTests bool    `yaml:"include_tests"`
	SaveDelayMS  int     `yaml:"save_delay_ms"`
}

func DefaultConfig() Config {
	return Config{
		DefaultModel: "Hynix 1.3 Pro",
		Mode:         string(ModeHynix),
		Temperature:  0.7,
		SaveDelayMS:  1000,
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultConfigPath()
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "Hynix 1.3 Pro"
	}
	if cfg.Mode == "" {
		cfg.Mode = string(ModeHynix)
	}
	if cfg.Temperature <= 0 || cfg.Temperature > 2 {
		cfg.Temperature = 0.7
	}
	if cfg.SaveDelayMS <= 0 {
		cfg.SaveDelayMS = 1000
	}
	// The environment wins over the file for the API key.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.GeminiAPIKey = key
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if path == "" {
		return errors.New("no path provided for config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "hynix", "config.yml")
}
