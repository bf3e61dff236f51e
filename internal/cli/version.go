package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/ncurep/internal/cli/helpers"
	"github.com/coral-mesh/ncurep/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if format == string(helpers.FormatJSON) {
				return (&helpers.JSONFormatter{}).Format(info, cmd.OutOrStdout())
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return nil
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable)
	return cmd
}
