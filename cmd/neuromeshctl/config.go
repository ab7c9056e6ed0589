package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// workloadConfig drives the run command. Fields mirror the run flags;
// flags that were set explicitly override the file.
type workloadConfig struct {
	Store        string
	DBPath       string
	Agents       int
	Architecture []int
	Activation   string
	Inferences   int
	Workers      int
	Epochs       int
	Samples      int
	Share        bool
	Seed         int64
}

func loadWorkloadFromConfig(path string) (workloadConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return workloadConfig{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return workloadConfig{}, err
	}

	var cfg workloadConfig
	if v, ok := asString(raw["store"]); ok {
		cfg.Store = v
	}
	if v, ok := asString(raw["db_path"]); ok {
		cfg.DBPath = v
	}
	if v, ok := asInt(raw["agents"]); ok {
		cfg.Agents = v
	}
	if v, ok := asIntSlice(raw["architecture"]); ok {
		cfg.Architecture = v
	}
	if v, ok := asString(raw["activation"]); ok {
		cfg.Activation = v
	}
	if v, ok := asInt(raw["inferences"]); ok {
		cfg.Inferences = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		cfg.Workers = v
	}
	if v, ok := asInt(raw["epochs"]); ok {
		cfg.Epochs = v
	}
	if v, ok := asInt(raw["samples"]); ok {
		cfg.Samples = v
	}
	if v, ok := asBool(raw["share"]); ok {
		cfg.Share = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		cfg.Seed = v
	}
	return cfg, nil
}

func loadOrDefaultWorkload(configPath string) (workloadConfig, error) {
	if configPath == "" {
		return workloadConfig{Share: true}, nil
	}
	cfg, err := loadWorkloadFromConfig(configPath)
	if err != nil {
		return workloadConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func overrideWorkloadFromFlags(cfg *workloadConfig, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "store":
			cfg.Store = v.(string)
		case "db-path":
			cfg.DBPath = v.(string)
		case "agents":
			cfg.Agents = v.(int)
		case "arch":
			if layers, err := parseArchitecture(v.(string)); err == nil {
				cfg.Architecture = layers
			}
		case "activation":
			cfg.Activation = v.(string)
		case "inferences":
			cfg.Inferences = v.(int)
		case "workers":
			cfg.Workers = v.(int)
		case "epochs":
			cfg.Epochs = v.(int)
		case "samples":
			cfg.Samples = v.(int)
		case "share":
			cfg.Share = v.(bool)
		case "seed":
			cfg.Seed = v.(int64)
		}
	}
}

func normalizeWorkload(cfg *workloadConfig) {
	if cfg.Agents <= 0 {
		cfg.Agents = 5
	}
	if len(cfg.Architecture) == 0 {
		cfg.Architecture = []int{10, 5, 1}
	}
	if cfg.Inferences <= 0 {
		cfg.Inferences = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Epochs < 0 {
		cfg.Epochs = 0
	}
	if cfg.Samples < 0 {
		cfg.Samples = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asIntSlice(v any) ([]int, bool) {
	xs, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(xs))
	for _, item := range xs {
		n, ok := asInt(item)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
