package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/norsteel/takeoff/internal/cli"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in     string
		want   cli.OutputFormat
		wantOK bool
	}{
		{"text", cli.OutputText, true},
		{"json", cli.OutputJSON, true},
		{"", cli.OutputText, true},
		{"yaml", cli.OutputText, false},
	}
	for _, tt := range tests {
		got, ok := parseOutputFormat(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseOutputFormat(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseHeaderCells(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"ITEM|DESCRIPTION|QTY|UNIT", []string{"ITEM", "DESCRIPTION", "QTY", "UNIT"}},
		{" S.No | DESCRIPTN | QUAN - | U M ", []string{"S.No", "DESCRIPTN", "QUAN -", "U M"}},
		{"DESCRIPTION", []string{"DESCRIPTION"}},
	}
	for _, tt := range tests {
		got := parseHeaderCells(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseHeaderCells(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseHeaderCells(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestReadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	content := `{
  "materials": [
    {"id": "m1", "code": "P-6-40", "category": "pipe", "description": "PIPE 6\" SCH40"}
  ],
  "pipe_dimensions": [
    {"nps_inch": 6, "schedule": "40", "od_mm": 168.3, "wall_mm": 7.11}
  ]
}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cf, err := readCatalogFile(path)
	if err != nil {
		t.Fatalf("readCatalogFile: %v", err)
	}
	if len(cf.Materials) != 1 || cf.Materials[0].Code != "P-6-40" {
		t.Errorf("materials: %+v", cf.Materials)
	}
	if len(cf.PipeDimensions) != 1 || cf.PipeDimensions[0].NPSInch != 6 {
		t.Errorf("pipe dimensions: %+v", cf.PipeDimensions)
	}
}

func TestReadCatalogFile_empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(path, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := readCatalogFile(path); err == nil {
		t.Error("expected error for catalog file with no entries")
	}
}

func TestReadCatalogFile_invalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{materials`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := readCatalogFile(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}
