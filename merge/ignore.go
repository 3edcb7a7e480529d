package merge

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/applyops/structmerge/fieldpath"
)

// IgnoreFilter drops paths from declared and compared field sets so they
// never participate in ownership or conflicts. Rules are either literal
// path prefixes or a compiled expression over the textual path.
type IgnoreFilter struct {
	prefixes []fieldpath.Path
	program  *vm.Program
}

// NewPrefixIgnoreFilter ignores every path equal to or below one of the
// given paths.
func NewPrefixIgnoreFilter(paths ...fieldpath.Path) *IgnoreFilter {
	return &IgnoreFilter{prefixes: paths}
}

// NewExprIgnoreFilter compiles a boolean expression evaluated with the
// environment {path: string}; paths for which it yields true are ignored.
// For example: `hasPrefix(path, ".metadata")`.
func NewExprIgnoreFilter(src string) (*IgnoreFilter, error) {
	program, err := expr.Compile(src,
		expr.Env(exprEnv{}),
		expr.AsBool(),
		expr.Function("hasPrefix", func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("hasPrefix takes two arguments")
			}
			s, ok1 := params[0].(string)
			p, ok2 := params[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("hasPrefix takes string arguments")
			}
			return strings.HasPrefix(s, p), nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("compiling ignore rule: %w", err)
	}
	return &IgnoreFilter{program: program}, nil
}

type exprEnv struct {
	Path string `expr:"path"`
}

func (f *IgnoreFilter) ignores(p fieldpath.Path) bool {
	for _, prefix := range f.prefixes {
		if len(prefix) <= len(p) && p[:len(prefix)].Equals(prefix) {
			return true
		}
	}
	if f.program != nil {
		out, err := vm.Run(f.program, exprEnv{Path: p.String()})
		if err == nil {
			if b, ok := out.(bool); ok && b {
				return true
			}
		}
		// an erroring rule never hides a path
	}
	return false
}

// FilterSet returns the set without the ignored paths. A nil filter
// passes everything through.
func (f *IgnoreFilter) FilterSet(set *fieldpath.Set) *fieldpath.Set {
	if f == nil {
		return set
	}
	out := fieldpath.NewSet()
	set.Iterate(func(p fieldpath.Path) {
		if !f.ignores(p) {
			out.Insert(p)
		}
	})
	return out
}
