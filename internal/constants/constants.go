// Package constants defines shared configuration constants.
package constants

var (
	// DefaultDir is created under the base directory for config and data.
	DefaultDir = ".ncurep"

	ConfigFile = "config.yaml"

	DatabaseFile = "kernels.duckdb"

	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "NCUREP_"

	// ConfigDirEnv overrides the base directory.
	ConfigDirEnv = EnvPrefix + "CONFIG"

	// DefaultMaxReportSize bounds the report files the CLI will read.
	DefaultMaxReportSize int64 = 2 << 30

	DefaultLogLevel = "info"
)
