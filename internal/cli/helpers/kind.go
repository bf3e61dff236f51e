package helpers

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/coral-mesh/ncurep/internal/report"
)

// KindsFlag is a pflag.Value accepting case-insensitive kernel kinds. It
// may be repeated and takes comma separated lists.
type KindsFlag struct {
	Kinds []report.Kind
}

var _ pflag.Value = (*KindsFlag)(nil)

func (f *KindsFlag) String() string {
	names := make([]string, len(f.Kinds))
	for i, k := range f.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}

func (f *KindsFlag) Set(s string) error {
	for part := range strings.SplitSeq(s, ",") {
		k, ok := report.ParseKind(strings.TrimSpace(part))
		if !ok {
			return fmt.Errorf("unknown kernel kind %q", part)
		}
		f.Kinds = append(f.Kinds, k)
	}
	return nil
}

func (f *KindsFlag) Type() string { return "kinds" }

// AddFlags registers --kind on flags.
func (f *KindsFlag) AddFlags(flags *pflag.FlagSet) {
	flags.Var(f, "kind", "Only kernels of these kinds, repeatable or comma separated (GEMM, Conv, Reduce, Elementwise, Softmax, Norm, Attention, RNG, Memory, Compute)")
}
