package cli

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/ncurep/internal/cli/helpers"
	cerrors "github.com/coral-mesh/ncurep/internal/errors"
	"github.com/coral-mesh/ncurep/internal/report"
	"github.com/coral-mesh/ncurep/internal/store"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		format string
		dbPath string
		jobs   int
	)

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Decode reports and store their kernels",
		Long: `Decode .ncu-rep files and store their kernels, display metrics and hints
in the local DuckDB database. Reports are keyed by the hash of their
contents, so importing the same file twice updates it in place.

Examples:
  ncurep import runs/*.ncu-rep
  ncurep import --db ./kernels.duckdb profile.ncu-rep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := a.formatter(format)
			if err != nil {
				return err
			}

			decoded, err := a.decodeAll(cmd, args, jobs, func(path string) []report.Option {
				return []report.Option{report.WithLogger(a.componentLogger("decoder").With().Str("path", path).Logger())}
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := store.Open(ctx, a.databasePath(dbPath), a.componentLogger("store"))
			if err != nil {
				return err
			}
			defer cerrors.DeferClose(a.logger, s, "Failed to close kernel database")

			// DuckDB allows one writer, so imports run one at a time.
			results := make([]*store.ImportResult, 0, len(decoded))
			for _, d := range decoded {
				res, err := s.Import(ctx, d.path, d.buf, d.report)
				if err != nil {
					return err
				}
				results = append(results, res)
			}

			return formatter.Format(results, cmd.OutOrStdout())
		},
	}

	helpers.AddFormatFlag(cmd, &format, "")
	helpers.AddDatabaseFlag(cmd, &dbPath)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Maximum files decoded at once")

	return cmd
}
