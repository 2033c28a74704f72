package config

import (
	"io"

	"github.com/xyproto/weaklink/codegen"
)

// GenerateOption configures a single GenerateSource call.
type GenerateOption func(*codegen.Input)

// WithTableSuffix pins the synthetic table's random suffix, needed for the
// byte-identical output spec.md §8's "Generator determinism" property
// requires across repeated runs.
func WithTableSuffix(suffix string) GenerateOption {
	return func(in *codegen.Input) { in.TableSuffix = suffix }
}

// generateSourcePair adapts a Config into a codegen.Input and delegates the
// actual emission to package codegen (spec.md §4.4).
func generateSourcePair(c *Config, goW, asmW io.Writer, opts ...GenerateOption) error {
	adjusted := adjustedStubs(c.Target, c.AdjustSymbolNames, c.stubs)

	stubs := make([]codegen.Stub, len(adjusted))
	for i, s := range adjusted {
		stubs[i] = codegen.Stub{ImportName: s.ImportName, ExportName: s.ExportName, IsData: s.IsData, NumArgs: s.NumArgs, Returns: s.Returns}
	}

	groups := make([]codegen.Group, 0, len(c.groupOrd))
	for _, name := range c.groupOrd {
		groups = append(groups, codegen.Group{Name: name, Indices: c.groups[name]})
	}

	in := codegen.Input{
		Name:        c.Name,
		Target:      c.Target,
		DylibNames:  c.DylibNames,
		LazyBinding: c.LazyBinding,
		Stubs:       stubs,
		Groups:      groups,
	}
	for _, opt := range opts {
		opt(&in)
	}

	return codegen.Generate(in, goW, asmW)
}
