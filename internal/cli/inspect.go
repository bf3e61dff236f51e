package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coral-mesh/ncurep/internal/cli/helpers"
	"github.com/coral-mesh/ncurep/internal/report"
	"github.com/coral-mesh/ncurep/internal/report/container"
	"github.com/coral-mesh/ncurep/internal/report/message"
	"github.com/coral-mesh/ncurep/internal/report/reportmetrics"
	"github.com/coral-mesh/ncurep/internal/report/units"
	"github.com/coral-mesh/ncurep/internal/store"
)

// inspectResult is the JSON view of one inspected report.
type inspectResult struct {
	Path       string                 `json:"path"`
	ReportHash string                 `json:"reportHash"`
	Session    report.SessionInfo     `json:"sessionInfo"`
	Summary    []report.KernelSummary `json:"kernels"`
	Stats      container.Stats        `json:"stats"`
	Report     *report.Report         `json:"report,omitempty"`
}

type inspectOptions struct {
	format   string
	full     bool
	metrics  bool
	progress bool
	jobs     int
}

func newInspectCmd(a *app) *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Print session info and a kernel summary",
		Long: `Decode one or more .ncu-rep files and print the profiled device and a
one-line summary per kernel. Files are decoded concurrently.

Examples:
  ncurep inspect profile.ncu-rep
  ncurep inspect -o json --full a.ncu-rep b.ncu-rep
  ncurep inspect --metrics profile.ncu-rep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(cmd, args, opts)
		},
	}

	helpers.AddFormatFlag(cmd, &opts.format, "")
	cmd.Flags().BoolVar(&opts.full, "full", false, "Include every section, metric and hint in JSON output")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print decode metrics in Prometheus text format")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "Report decode progress on stderr")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 4, "Maximum files decoded at once")

	return cmd
}

func (a *app) runInspect(cmd *cobra.Command, paths []string, opts inspectOptions) error {
	formatter, err := a.formatter(opts.format)
	if err != nil {
		return err
	}

	var (
		registry *prometheus.Registry
		metrics  *reportmetrics.Metrics
	)
	if opts.metrics {
		registry = prometheus.NewRegistry()
		if metrics, err = reportmetrics.New(registry); err != nil {
			return err
		}
	}

	results, err := a.decodeAll(cmd, paths, opts.jobs, func(path string) []report.Option {
		parseOpts := []report.Option{report.WithLogger(a.componentLogger("decoder").With().Str("path", path).Logger())}
		if metrics != nil {
			parseOpts = append(parseOpts, report.WithMetrics(metrics))
		}
		if opts.progress {
			parseOpts = append(parseOpts, report.WithProgress(a.progressPrinter(path)))
		}
		return parseOpts
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, isTable := formatter.(*helpers.TableFormatter); isTable {
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(out)
			}
			if err := printInspectTable(out, formatter, res); err != nil {
				return err
			}
		}
	} else {
		views := make([]inspectResult, len(results))
		for i, res := range results {
			views[i] = res.view(opts.full)
		}
		if err := formatter.Format(views, out); err != nil {
			return err
		}
	}

	if registry != nil {
		fmt.Fprintln(out)
		return reportmetrics.WriteText(out, registry)
	}
	return nil
}

type decoded struct {
	path   string
	buf    []byte
	report *report.Report
}

func (d decoded) view(full bool) inspectResult {
	v := inspectResult{
		Path:       d.path,
		ReportHash: store.Hash(d.buf),
		Session:    d.report.Session,
		Summary:    d.report.Summaries(),
		Stats:      d.report.Stats,
	}
	if full {
		v.Report = d.report
	}
	return v
}

// decodeAll reads and parses paths concurrently. Results keep the order of
// paths. The first failure cancels the remaining files.
func (a *app) decodeAll(cmd *cobra.Command, paths []string, jobs int, options func(string) []report.Option) ([]decoded, error) {
	results := make([]decoded, len(paths))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(jobs, 1))

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf, err := a.readReport(path)
			if err != nil {
				return err
			}
			r, err := report.Parse(buf, options(path)...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if r.Stats.Truncated {
				a.logger.Warn().Str("path", path).Int("kernels", len(r.Kernels)).Msg("Report is truncated, showing the kernels decoded so far")
			}
			results[i] = decoded{path: path, buf: buf, report: r}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// progressPrinter writes one line per decoded block. Decodes run
// concurrently, so writes are serialized.
func (a *app) progressPrinter(path string) container.ProgressFunc {
	return func(p container.Progress) {
		if p.Stage != container.StageBlock {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		fmt.Fprintf(a.stderr, "%s: block %d, %d kernels, %s/%s bytes\n",
			path, p.Block, p.Kernels, units.Number(float64(p.Offset), 0), units.Number(float64(p.Total), 0))
	}
}

var progressMu sync.Mutex

func printInspectTable(w io.Writer, formatter helpers.Formatter, d decoded) error {
	s := d.report.Session

	fmt.Fprintf(w, "Report:   %s (%s)\n", d.path, store.Hash(d.buf))
	fmt.Fprintf(w, "Version:  %d\n", s.FileVersion)
	if s.HasDevice() {
		fmt.Fprintf(w, "Device:   %s (CC %s, %d SMs)\n", s.DeviceName, s.ComputeCapability, s.SMCount)
		if s.MemoryTotal > 0 {
			mem := units.Format("device__attribute_global_memory_size", message.Uint64Value(s.MemoryTotal))
			fmt.Fprintf(w, "Memory:   %s %s\n", mem.Value, mem.Unit)
		}
	}
	fmt.Fprintf(w, "Kernels:  %d\n", len(d.report.Kernels))
	if d.report.Stats.Truncated {
		fmt.Fprintln(w, "Warning:  report is truncated")
	}

	if len(d.report.Kernels) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	return formatter.Format(d.report.Summaries(), w)
}
