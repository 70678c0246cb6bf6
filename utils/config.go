package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"

	"github.com/sheikhrachel/lifegrid/model"
)

const (
	ModeWeb      = "web"
	ModeTerminal = "terminal"
)

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
)

// Config holds the configuration for the simulator
type Config struct {
	Mode           string
	Addr           string
	Rows           int
	Cols           int
	Delay          time.Duration
	Threshold      float64
	Seed           int64 // 0 seeds from the clock
	MaxGenerations int   // terminal mode only, 0 runs until interrupted
	LogLevel       string
	LogFormat      string
}

// fileConfig is the on-disk shape shared by the JSON and HCL formats.
// Fields missing from a file keep the values they were initialized with.
type fileConfig struct {
	Mode           string  `json:"mode" hcl:"mode,optional"`
	Addr           string  `json:"addr" hcl:"addr,optional"`
	Rows           int     `json:"rows" hcl:"rows,optional"`
	Cols           int     `json:"cols" hcl:"cols,optional"`
	Delay          string  `json:"delay" hcl:"delay,optional"`
	Threshold      float64 `json:"random_threshold" hcl:"random_threshold,optional"`
	Seed           int64   `json:"seed" hcl:"seed,optional"`
	MaxGenerations int     `json:"max_generations" hcl:"max_generations,optional"`
	LogLevel       string  `json:"log_level" hcl:"log_level,optional"`
	LogFormat      string  `json:"log_format" hcl:"log_format,optional"`
}

// DefaultConfig returns the defaults of the browser simulator
func DefaultConfig() Config {
	return Config{
		Mode:      ModeWeb,
		Addr:      ":8080",
		Rows:      model.DefaultRows,
		Cols:      model.DefaultCols,
		Delay:     400 * time.Millisecond,
		Threshold: model.DefaultThreshold,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig loads configuration from a .json or .hcl file on top of the defaults
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to read file: %+v", filename)
	}

	fc := config.toFile()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if err = json.Unmarshal(data, &fc); err != nil {
			return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal data from file: %+v", filename)
		}
	case ".hcl":
		if err = decodeHCL(filename, data, &fc); err != nil {
			return config, err
		}
	default:
		return config, errors.Wrapf(ErrUnsupportedFormat, "[LoadConfig] %+v", filename)
	}

	loaded, err := fc.toConfig()
	if err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] file: %+v", filename)
	}
	return loaded, nil
}

func decodeHCL(filename string, data []byte, fc *fileConfig) error {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return errors.Wrapf(diags, "[LoadConfig] failed to parse HCL file: %+v", filename)
	}
	if diags = gohcl.DecodeBody(file.Body, hclEvalContext(), fc); diags.HasErrors() {
		return errors.Wrapf(diags, "[LoadConfig] failed to decode HCL file: %+v", filename)
	}
	return nil
}

// hclEvalContext exposes the process environment to HCL files as env.NAME.
func hclEvalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = cty.StringVal(value)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
	}
}

func (c Config) toFile() fileConfig {
	return fileConfig{
		Mode:           c.Mode,
		Addr:           c.Addr,
		Rows:           c.Rows,
		Cols:           c.Cols,
		Delay:          c.Delay.String(),
		Threshold:      c.Threshold,
		Seed:           c.Seed,
		MaxGenerations: c.MaxGenerations,
		LogLevel:       c.LogLevel,
		LogFormat:      c.LogFormat,
	}
}

func (fc fileConfig) toConfig() (Config, error) {
	delay, err := time.ParseDuration(fc.Delay)
	if err != nil {
		return Config{}, errors.Wrapf(ErrInvalidConfig, "delay %q: %v", fc.Delay, err)
	}
	return Config{
		Mode:           fc.Mode,
		Addr:           fc.Addr,
		Rows:           fc.Rows,
		Cols:           fc.Cols,
		Delay:          delay,
		Threshold:      fc.Threshold,
		Seed:           fc.Seed,
		MaxGenerations: fc.MaxGenerations,
		LogLevel:       strings.ToLower(fc.LogLevel),
		LogFormat:      strings.ToLower(fc.LogFormat),
	}, nil
}

// Validate checks that every field holds a usable value
func (c Config) Validate() error {
	switch {
	case c.Mode != ModeWeb && c.Mode != ModeTerminal:
		return errors.Wrapf(ErrInvalidConfig, "mode must be %q or %q, got %q", ModeWeb, ModeTerminal, c.Mode)
	case c.Rows <= 0 || c.Cols <= 0:
		return errors.Wrapf(ErrInvalidConfig, "grid must be at least 1x1, got %dx%d", c.Rows, c.Cols)
	case c.Delay <= 0:
		return errors.Wrapf(ErrInvalidConfig, "delay must be positive, got %s", c.Delay)
	case c.Threshold < 0 || c.Threshold > 1:
		return errors.Wrapf(ErrInvalidConfig, "random_threshold must be within [0,1], got %v", c.Threshold)
	case c.MaxGenerations < 0:
		return errors.Wrapf(ErrInvalidConfig, "max_generations must not be negative, got %d", c.MaxGenerations)
	case c.Mode == ModeWeb && c.Addr == "":
		return errors.Wrapf(ErrInvalidConfig, "addr is required in %s mode", ModeWeb)
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return errors.Wrapf(ErrInvalidConfig, "log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return errors.Wrapf(ErrInvalidConfig, "log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}
