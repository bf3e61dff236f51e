package helpers

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// AddFormatFlag adds a standard --format/-o flag to a command. An empty
// default defers to the configured output format.
func AddFormatFlag(cmd *cobra.Command, formatVar *string, defaultFormat OutputFormat) {
	description := fmt.Sprintf("Output format (%s)", strings.Join(formatNames(), ", "))
	cmd.Flags().StringVarP(formatVar, "format", "o", string(defaultFormat), description)

	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return formatNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

// AddDatabaseFlag adds a --db flag for the kernel database path.
func AddDatabaseFlag(cmd *cobra.Command, dbVar *string) {
	cmd.Flags().StringVar(dbVar, "db", "", "Kernel database path (defaults to storage.database)")
}

// ValidateFormat checks if the format is supported.
func ValidateFormat(format string) (OutputFormat, error) {
	if slices.Contains(SupportedFormats, OutputFormat(format)) {
		return OutputFormat(format), nil
	}
	return "", fmt.Errorf("unsupported format %q, must be one of: %s",
		format, strings.Join(formatNames(), ", "))
}

func formatNames() []string {
	names := make([]string, len(SupportedFormats))
	for i, f := range SupportedFormats {
		names[i] = string(f)
	}
	return names
}
