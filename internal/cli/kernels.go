package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/ncurep/internal/cli/helpers"
	cerrors "github.com/coral-mesh/ncurep/internal/errors"
	"github.com/coral-mesh/ncurep/internal/store"
)

func newReportsCmd(a *app) *cobra.Command {
	var format, dbPath string

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List imported reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter, err := a.formatter(format)
			if err != nil {
				return err
			}
			s, err := a.openReadOnly(cmd, dbPath)
			if err != nil {
				return err
			}
			defer cerrors.DeferClose(a.logger, s, "Failed to close kernel database")

			rows, err := s.Reports(cmd.Context())
			if err != nil {
				return err
			}
			return formatter.Format(rows, cmd.OutOrStdout())
		},
	}

	helpers.AddFormatFlag(cmd, &format, "")
	helpers.AddDatabaseFlag(cmd, &dbPath)
	return cmd
}

func newKernelsCmd(a *app) *cobra.Command {
	var (
		format, dbPath string
		kinds          helpers.KindsFlag
		filter         store.KernelFilter
	)

	cmd := &cobra.Command{
		Use:   "kernels",
		Short: "List stored kernels",
		Long: `List kernels stored by "ncurep import".

Examples:
  ncurep kernels --kind gemm
  ncurep kernels --kind softmax,norm
  ncurep kernels --report 3f2a9c01d4e5b678 --name softmax --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter, err := a.formatter(format)
			if err != nil {
				return err
			}
			filter.Kinds = kinds.Kinds
			if filter.Limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			s, err := a.openReadOnly(cmd, dbPath)
			if err != nil {
				return err
			}
			defer cerrors.DeferClose(a.logger, s, "Failed to close kernel database")

			rows, err := s.Kernels(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return formatter.Format(rows, cmd.OutOrStdout())
		},
	}

	helpers.AddFormatFlag(cmd, &format, "")
	helpers.AddDatabaseFlag(cmd, &dbPath)
	cmd.Flags().StringVar(&filter.ReportHash, "report", "", "Only kernels of this report hash")
	cmd.Flags().StringVar(&filter.NameLike, "name", "", "Only kernels whose name contains this text")
	kinds.AddFlags(cmd.Flags())
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum kernels to list (0 lists all)")
	return cmd
}

func newMetricsCmd(a *app) *cobra.Command {
	var (
		format, dbPath string
		hash           string
		index          int
	)

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print the stored metrics and hints of one kernel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter, err := a.formatter(format)
			if err != nil {
				return err
			}
			s, err := a.openReadOnly(cmd, dbPath)
			if err != nil {
				return err
			}
			defer cerrors.DeferClose(a.logger, s, "Failed to close kernel database")

			ctx := cmd.Context()
			metrics, err := s.Metrics(ctx, hash, index)
			if err != nil {
				return err
			}
			hints, err := s.Hints(ctx, hash, index)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, isTable := formatter.(*helpers.TableFormatter); !isTable {
				return formatter.Format(struct {
					Metrics []*store.MetricRow `json:"metrics"`
					Hints   []*store.HintRow   `json:"hints"`
				}{metrics, hints}, out)
			}

			if err := formatter.Format(metrics, out); err != nil {
				return err
			}
			for _, h := range hints {
				fmt.Fprintf(out, "[%s] %s: %s\n", h.HintType, h.Section, h.Text)
			}
			return nil
		},
	}

	helpers.AddFormatFlag(cmd, &format, "")
	helpers.AddDatabaseFlag(cmd, &dbPath)
	cmd.Flags().StringVar(&hash, "report", "", "Report hash")
	cmd.Flags().IntVarP(&index, "kernel", "k", 0, "Kernel index within the report")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "remove <report-hash>",
		Short: "Delete an imported report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(cmd.Context(), a.databasePath(dbPath), a.componentLogger("store"))
			if err != nil {
				return err
			}
			defer cerrors.DeferClose(a.logger, s, "Failed to close kernel database")

			removed, err := s.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("report %s: %w", args[0], store.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed report %s\n", args[0])
			return nil
		},
	}

	helpers.AddDatabaseFlag(cmd, &dbPath)
	return cmd
}

func (a *app) openReadOnly(cmd *cobra.Command, dbPath string) (*store.Store, error) {
	return store.OpenReadOnly(cmd.Context(), a.databasePath(dbPath), a.componentLogger("store"))
}
