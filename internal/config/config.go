package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all tabflow configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" toml:"input"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Inspect InspectConfig `yaml:"inspect" toml:"inspect"`
	Run     RunConfig     `yaml:"run" toml:"run"`
	History HistoryConfig `yaml:"history" toml:"history"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	Jobs []Job `yaml:"jobs" toml:"jobs"`
}

// InputConfig describes the source dataset.
type InputConfig struct {
	Path        string   `yaml:"path" toml:"path"`
	Format      string   `yaml:"format" toml:"format"` // auto, csv, xlsx
	Sheet       string   `yaml:"sheet" toml:"sheet"`   // xlsx only, first sheet when empty
	Delimiter   string   `yaml:"delimiter" toml:"delimiter"`
	NullValues  []string `yaml:"null_values" toml:"null_values"`
	DetectTypes bool     `yaml:"detect_types" toml:"detect_types"`
}

// OutputConfig controls how job results are persisted.
type OutputConfig struct {
	Dir       string `yaml:"dir" toml:"dir"`
	Format    string `yaml:"format" toml:"format"` // csv, xlsx
	Delimiter string `yaml:"delimiter" toml:"delimiter"`
	Header    bool   `yaml:"header" toml:"header"`
	NullValue string `yaml:"null_value" toml:"null_value"`
	Mode      string `yaml:"mode" toml:"mode"` // overwrite, error, ignore
}

// InspectConfig controls the schema and sample printout after load.
type InspectConfig struct {
	Enabled    bool `yaml:"enabled" toml:"enabled"`
	SampleRows int  `yaml:"sample_rows" toml:"sample_rows"`
}

// RunConfig controls job execution.
type RunConfig struct {
	Parallelism int `yaml:"parallelism" toml:"parallelism"`
}

// HistoryConfig configures the run ledger. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, console
}

const (
	FormatAuto = "auto"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ModeOverwrite = "overwrite"
	ModeError     = "error"
	ModeIgnore    = "ignore"
)

// DefaultConfig returns the configuration that reproduces the employee
// transformation job: six outputs derived from one CSV input. Outputs have
// no header row and a run fails rather than replace an existing output.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Path:        "data.csv",
			Format:      FormatAuto,
			Delimiter:   ",",
			NullValues:  []string{"", "NA", "NaN", "null", "NULL"},
			DetectTypes: true,
		},
		Output: OutputConfig{
			Dir:       "output",
			Format:    FormatCSV,
			Delimiter: ",",
			Header:    false,
			NullValue: "",
			Mode:      ModeError,
		},
		Inspect: InspectConfig{
			Enabled:    true,
			SampleRows: 5,
		},
		Run: RunConfig{
			Parallelism: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Jobs: DefaultJobs(),
	}
}

// Load reads a YAML or TOML file (by extension) on top of DefaultConfig.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else {
			// Lists from the file replace the defaults instead of extending them.
			jobs, nulls := cfg.Jobs, cfg.Input.NullValues
			cfg.Jobs, cfg.Input.NullValues = nil, nil
			if err := unmarshal(path, data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			if cfg.Jobs == nil {
				cfg.Jobs = jobs
			}
			if cfg.Input.NullValues == nil {
				cfg.Input.NullValues = nulls
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}
}

// Save writes the configuration as YAML or TOML depending on the extension.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		data, err = toml.Marshal(c)
	default:
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// InputFormat resolves "auto" against the input path extension.
func (c *Config) InputFormat() string {
	if c.Input.Format != "" && c.Input.Format != FormatAuto {
		return c.Input.Format
	}
	switch strings.ToLower(filepath.Ext(c.Input.Path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// OutputPath returns the file a job writes to.
func (c *Config) OutputPath(job Job) string {
	name := job.Output
	if name == "" {
		name = job.Name + "." + c.Output.Format
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}
