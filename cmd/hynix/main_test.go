package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hynix-cli/internal/app"
)

func seedSnapshot(t *testing.T) (configPath string) {
	t.Helper()
	root := t.TempDir()

	storage := app.NewFileStorage(root, app.NewLogger(os.Stderr))
	storage.Save("guest@hynix.ai", app.Snapshot{
		Version:          app.SnapshotVersion,
		CurrentSessionID: "sess-current",
		Sessions: []app.ChatSession{
			{
				ID:      "sess-current",
				Title:   "Trip planning",
				ModelID: "Hynix 1.3 Pro",
				Messages: []app.Message{
					{ID: "m1", Role: app.RoleUser, Text: "hello", Timestamp: time.Now()},
					{ID: "m2", Role: app.RoleModel, Text: "hi!", Timestamp: time.Now()},
				},
			},
			{ID: "other-session", Title: "Scratch", ModelID: "Hynix 1.3 Pro"},
		},
	})

	configPath = filepath.Join(root, "config.yaml")
	cfg := app.DefaultConfig()
	cfg.StorageRoot = root
	if err := app.SaveConfig(cfg, configPath); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestExportCmdWritesCurrentSession(t *testing.T) {
	flagConfig = seedSnapshot(t)
	t.Cleanup(func() { flagConfig = "" })

	cmd := newExportCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("export: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "# Trip planning") {
		t.Fatalf("missing title header:\n%s", text)
	}
	if !strings.Contains(text, "hello") || !strings.Contains(text, "hi!") {
		t.Fatalf("missing messages:\n%s", text)
	}
}

func TestExportCmdSessionPrefixAndErrors(t *testing.T) {
	flagConfig = seedSnapshot(t)
	t.Cleanup(func() { flagConfig = "" })

	cmd := newExportCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"other"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("prefix export: %v", err)
	}
	if !strings.Contains(out.String(), "# Scratch") {
		t.Fatalf("wrong session exported:\n%s", out.String())
	}

	cmd = newExportCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"nope"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("unknown prefix should fail")
	}
}

func TestExportCmdJSONToFile(t *testing.T) {
	flagConfig = seedSnapshot(t)
	t.Cleanup(func() { flagConfig = "" })

	outPath := filepath.Join(t.TempDir(), "session.json")
	cmd := newExportCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"sess-current", "--format", "json", "-o", outPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("json export: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"Trip planning"`) {
		t.Fatalf("json missing title:\n%s", data)
	}
}
