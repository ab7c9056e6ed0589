package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workload.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadWorkloadFromConfig(t *testing.T) {
	path := writeConfig(t, `{
		"store": "memory",
		"agents": 3,
		"architecture": [8, 4, 2],
		"activation": "relu",
		"inferences": 10,
		"workers": 2,
		"epochs": 5,
		"samples": 20,
		"share": true,
		"seed": 42
	}`)

	cfg, err := loadWorkloadFromConfig(path)
	if err != nil {
		t.Fatalf("loadWorkloadFromConfig: %v", err)
	}
	if cfg.Store != "memory" || cfg.Agents != 3 || cfg.Activation != "relu" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Architecture, []int{8, 4, 2}) {
		t.Fatalf("architecture = %v", cfg.Architecture)
	}
	if cfg.Inferences != 10 || cfg.Workers != 2 || cfg.Epochs != 5 || cfg.Samples != 20 {
		t.Fatalf("workload numbers wrong: %+v", cfg)
	}
	if !cfg.Share || cfg.Seed != 42 {
		t.Fatalf("share/seed wrong: %+v", cfg)
	}
}

func TestLoadWorkloadRejectsMalformed(t *testing.T) {
	path := writeConfig(t, `{broken`)
	if _, err := loadWorkloadFromConfig(path); err == nil {
		t.Fatal("malformed config accepted")
	}
	if _, err := loadWorkloadFromConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestOverrideWorkloadFromFlags(t *testing.T) {
	cfg := workloadConfig{Agents: 3, Architecture: []int{8, 4, 2}}
	overrideWorkloadFromFlags(&cfg,
		map[string]bool{"agents": true, "arch": true},
		map[string]any{"agents": 7, "arch": "2,2", "workers": 9})

	if cfg.Agents != 7 {
		t.Fatalf("agents = %d, want flag override 7", cfg.Agents)
	}
	if !reflect.DeepEqual(cfg.Architecture, []int{2, 2}) {
		t.Fatalf("architecture = %v, want [2 2]", cfg.Architecture)
	}
	if cfg.Workers != 0 {
		t.Fatalf("unset flag applied: workers = %d", cfg.Workers)
	}
}

func TestNormalizeWorkloadDefaults(t *testing.T) {
	var cfg workloadConfig
	normalizeWorkload(&cfg)
	if cfg.Agents != 5 || cfg.Inferences != 100 || cfg.Workers != 4 || cfg.Seed != 1 {
		t.Fatalf("defaults wrong: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Architecture, []int{10, 5, 1}) {
		t.Fatalf("default architecture = %v", cfg.Architecture)
	}
}

func TestParseArchitecture(t *testing.T) {
	layers, err := parseArchitecture("10, 5, 1")
	if err != nil {
		t.Fatalf("parseArchitecture: %v", err)
	}
	if !reflect.DeepEqual(layers, []int{10, 5, 1}) {
		t.Fatalf("layers = %v", layers)
	}
	if _, err := parseArchitecture("10,x,1"); err == nil {
		t.Fatal("non-numeric layer accepted")
	}
}
