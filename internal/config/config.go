// Package config loads ncurep settings from ~/.ncurep/config.yaml and
// NCUREP_* environment overrides.
package config

import (
	"fmt"
	"slices"

	"github.com/coral-mesh/ncurep/internal/constants"
	"github.com/coral-mesh/ncurep/internal/logging"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatTable, FormatJSON}

// Config is the merged configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Report  ReportConfig  `yaml:"report"`
	Storage StorageConfig `yaml:"storage"`
	Output  OutputConfig  `yaml:"output"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY"`
}

// ReportConfig bounds report reading.
type ReportConfig struct {
	// MaxSize is the largest report file, in bytes, that will be read.
	MaxSize int64 `yaml:"max_size" env:"MAX_REPORT_SIZE"`
}

// StorageConfig locates the kernel database.
type StorageConfig struct {
	// Database is the DuckDB file used by import and kernels. Empty means
	// kernels.duckdb in the ncurep directory.
	Database string `yaml:"database,omitempty" env:"DATABASE"`
}

// OutputConfig selects the default output format.
type OutputConfig struct {
	Format string `yaml:"format" env:"OUTPUT_FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  constants.DefaultLogLevel,
			Pretty: true,
		},
		Report: ReportConfig{
			MaxSize: constants.DefaultMaxReportSize,
		},
		Output: OutputConfig{
			Format: FormatTable,
		},
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Report.MaxSize <= 0 {
		return fmt.Errorf("report.max_size must be positive, got %d", c.Report.MaxSize)
	}
	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("output.format must be one of %v, got %q", Formats, c.Output.Format)
	}
	return nil
}
