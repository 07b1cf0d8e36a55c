package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when neither VOXFUSION_CONFIG_PATH nor an
	// explicit path is supplied.
	DefaultConfigPath = "voxfusion.yaml"
)

// Loader loads the persisted configuration document from disk. Tests
// override Lookup to inject deterministic environment maps, following the
// teacher's Loader.Lookup dependency-injection idiom.
type Loader struct {
	Lookup func(string) (string, bool)

	// ReadFile defaults to os.ReadFile; overridable for tests.
	ReadFile func(string) ([]byte, error)
}

// Result wraps the loaded Config together with any forward-compatibility
// warnings collected while parsing (spec §6: "unknown keys ... warnings").
type Result struct {
	Config   Config
	Warnings []string
}

// Load reads the configuration document at the resolved path, validates it,
// and returns it. Configuration errors are surfaced here, at construction
// time, never during analysis (spec §7).
func (l Loader) Load(explicitPath string) (Result, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	path := explicitPath
	if path == "" {
		if v, ok := l.Lookup("VOXFUSION_CONFIG_PATH"); ok && strings.TrimSpace(v) != "" {
			path = strings.TrimSpace(v)
		} else {
			path = DefaultConfigPath
		}
	}

	raw, err := l.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, warnings, err := parseDocument(raw)
	if err != nil {
		return Result{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if v, ok := l.Lookup("VOXFUSION_LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}

	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	return Result{Config: cfg, Warnings: warnings}, nil
}

// knownTopLevelKeys enumerates the document keys the pipeline understands.
// Anything else produces a warning rather than an error (spec §6:
// "Implementations must treat unknown keys as warnings").
var knownTopLevelKeys = map[string]bool{
	"sensors":   true,
	"fusion":    true,
	"meta":      true,
	"log_level": true,
}

func parseDocument(raw []byte) (Config, []string, error) {
	var generic map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return Config{}, nil, err
	}

	var warnings []string
	for key := range generic {
		if !knownTopLevelKeys[key] {
			warnings = append(warnings, fmt.Sprintf("config: unknown top-level key %q ignored", key))
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}
