package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultModel != "Hynix 1.3 Pro" {
		t.Fatalf("default model = %q", cfg.DefaultModel)
	}
	if cfg.Mode != string(ModeHynix) {
		t.Fatalf("mode = %q", cfg.Mode)
	}
	if cfg.Temperature != 0.7 {
		t.Fatalf("temperature = %v", cfg.Temperature)
	}
	if cfg.SaveDelayMS != 1000 {
		t.Fatalf("save delay = %d", cfg.SaveDelayMS)
	}
}

func TestLoadConfigFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("gemini_api_key: abc\ntemperature: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GeminiAPIKey != "abc" && os.Getenv("GEMINI_API_KEY") == "" {
		t.Fatalf("api key = %q", cfg.GeminiAPIKey)
	}
	if cfg.Temperature != 0.7 {
		t.Fatalf("out-of-range temperature should reset, got %v", cfg.Temperature)
	}
	if cfg.DefaultModel != "Hynix 1.3 Pro" {
		t.Fatalf("model = %q", cfg.DefaultModel)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yml")
	in := DefaultConfig()
	in.DefaultModel = "Nano 1.0"
	in.Mode = string(ModeNano)
	in.IncludeTests = true

	if err := SaveConfig(in, path); err != nil {
		t.Fatal(err)
	}
	out, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if out.DefaultModel != "Nano 1.0" || out.Mode != string(ModeNano) || !out.IncludeTests {
		t.Fatalf("round trip = %+v", out)
	}
}
