package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/ncurep/internal/cli/helpers"
	"github.com/coral-mesh/ncurep/internal/report"
	"github.com/coral-mesh/ncurep/internal/report/transform"
	"github.com/coral-mesh/ncurep/internal/report/units"
)

type showOptions struct {
	format   string
	kernel   int
	section  string
	source   bool
	describe bool
	all      bool
}

func newShowCmd(a *app) *cobra.Command {
	var opts showOptions

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print the sections, metrics and hints of one kernel",
		Long: `Print one kernel of a report: its launch configuration, every display
section with formatted metric values, and the profiler's hints.

Examples:
  ncurep show profile.ncu-rep --kernel 2
  ncurep show profile.ncu-rep -k 0 --section memory --describe
  ncurep show profile.ncu-rep -k 0 --source -o json
  ncurep show profile.ncu-rep -k 0 --all-metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShow(cmd, args[0], opts)
		},
	}

	helpers.AddFormatFlag(cmd, &opts.format, "")
	cmd.Flags().IntVarP(&opts.kernel, "kernel", "k", 0, "Kernel index, as listed by inspect")
	cmd.Flags().StringVarP(&opts.section, "section", "s", "", "Only sections whose name contains this text")
	cmd.Flags().BoolVar(&opts.source, "source", false, "Include the SASS source view")
	cmd.Flags().BoolVar(&opts.describe, "describe", false, "Explain each metric")
	cmd.Flags().BoolVar(&opts.all, "all-metrics", false, "Include every raw metric of the kernel, by name")

	return cmd
}

func (a *app) runShow(cmd *cobra.Command, path string, opts showOptions) error {
	formatter, err := a.formatter(opts.format)
	if err != nil {
		return err
	}

	buf, err := a.readReport(path)
	if err != nil {
		return err
	}
	r, err := report.Parse(buf, report.WithLogger(a.componentLogger("decoder").With().Str("path", path).Logger()))
	if err != nil {
		return err
	}

	if opts.kernel < 0 || opts.kernel >= len(r.Kernels) {
		return fmt.Errorf("kernel %d out of range: %s has %d kernels", opts.kernel, path, len(r.Kernels))
	}
	k := selectKernel(r.Kernels[opts.kernel], opts)
	if opts.section != "" && len(k.Sections) == 0 {
		return fmt.Errorf("no section matching %q in kernel %d", opts.section, opts.kernel)
	}

	out := cmd.OutOrStdout()
	if _, isTable := formatter.(*helpers.TableFormatter); !isTable {
		return formatter.Format(k, out)
	}
	return printKernel(out, opts.kernel, &k, opts.describe)
}

// selectKernel narrows k to what the options ask for.
func selectKernel(k transform.Kernel, opts showOptions) transform.Kernel {
	if !opts.source {
		k.Source = nil
	}
	if !opts.all {
		k.Metrics = nil
	}
	if opts.section != "" {
		needle := strings.ToLower(opts.section)
		var sections []transform.Section
		for _, s := range k.Sections {
			if strings.Contains(strings.ToLower(s.Name), needle) {
				sections = append(sections, s)
			}
		}
		k.Sections = sections
	}
	return k
}

var (
	sectionTitle = color.New(color.Bold).SprintFunc()
	hintColors   = map[transform.HintType]*color.Color{
		transform.HintOptimization: color.New(color.FgYellow),
		transform.HintInfo:         color.New(color.FgCyan),
	}
)

func printKernel(w io.Writer, index int, k *transform.Kernel, describe bool) error {
	fmt.Fprintf(w, "Kernel %d: %s\n", index, k.Name)
	if k.FunctionName != "" && k.FunctionName != k.Name {
		fmt.Fprintf(w, "Function: %s\n", k.FunctionName)
	}
	fmt.Fprintf(w, "Grid:     (%s)\n", k.Grid)
	fmt.Fprintf(w, "Block:    (%s)\n", k.Block)
	fmt.Fprintf(w, "CC:       %s\n", k.CC)
	fmt.Fprintf(w, "Context:  %d  Stream: %d\n", k.ContextID, k.StreamID)

	for i := range k.Sections {
		if err := printSection(w, &k.Sections[i], describe); err != nil {
			return err
		}
	}

	if len(k.Source) > 0 {
		fmt.Fprintf(w, "\n%s\n", sectionTitle("Source"))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Address\tLocation\tSASS")
		for _, row := range k.Source {
			loc := "-"
			if row.File != "" {
				loc = fmt.Sprintf("%s:%d", row.File, row.Line)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Address, loc, row.SASS)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(k.Metrics) > 0 {
		fmt.Fprintf(w, "\n%s\n", sectionTitle("Raw Metrics"))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, name := range k.Metrics.Names() {
			f := units.Format(name, k.Metrics[name])
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", name, f.Value, f.Unit)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func printSection(w io.Writer, s *transform.Section, describe bool) error {
	fmt.Fprintf(w, "\n%s\n", sectionTitle(s.Name))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range s.Metrics {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.Label, m.Value, m.Unit)
		if describe {
			if text := metricHelp(m); text != "" {
				fmt.Fprintf(tw, "    %s\t\t\n", text)
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, h := range s.Hints {
		c, ok := hintColors[h.Type]
		if !ok {
			c = color.New()
		}
		fmt.Fprintf(w, "  %s %s\n", c.Sprintf("[%s]", h.Type), h.Text)
	}
	return nil
}

// metricHelp describes m by its label, falling back to the unit rule that
// formatted its raw metric.
func metricHelp(m transform.Metric) string {
	if text, ok := report.DescribeMetric(m.Label); ok {
		return text
	}
	if rule := units.Rule(m.RawName); rule != "" {
		return fmt.Sprintf("%s (%s)", m.RawName, rule)
	}
	return m.RawName
}
