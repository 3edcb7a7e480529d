package main

import (
	"fmt"
	"io"
	"os"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/applyops/structmerge/fieldpath"
	"github.com/applyops/structmerge/schemaconv"
	"github.com/applyops/structmerge/typed"
	"github.com/applyops/structmerge/value"
)

func listTypes(cfg *ListTypesConfig, cc *cli.Context, args []string) error {
	args, err := cfg.ListTypes.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: list-types takes no arguments", cli.ErrUsage)
	}
	s, _, err := cfg.loadSchema()
	if err != nil {
		return err
	}
	for i := range s.Types {
		fmt.Fprintln(cc.Out, s.Types[i].Name)
	}
	return nil
}

func validate(cfg *ValidateConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Validate.Parse(cc, args)
	if err != nil {
		return err
	}
	s, tr, err := cfg.loadSchema()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	failed := false
	for _, arg := range args {
		v, err := cfg.loadValue(cc, arg)
		if err != nil {
			return err
		}
		if _, err := typed.AsTyped(v, s, tr); err != nil {
			failed = true
			fmt.Fprintf(cc.Out, "%s: invalid:\n%v\n", arg, err)
			continue
		}
		fmt.Fprintf(cc.Out, "%s: ok\n", arg)
	}
	if failed {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func fieldset(cfg *FieldsetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Fieldset.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) > 1 {
		return fmt.Errorf("%w: fieldset takes at most one file", cli.ErrUsage)
	}
	arg := "-"
	if len(args) == 1 {
		arg = args[0]
	}
	s, tr, err := cfg.loadSchema()
	if err != nil {
		return err
	}
	tv, err := cfg.loadTyped(cc, arg, s, tr)
	if err != nil {
		return err
	}
	set, err := tv.ToFieldSet()
	if err != nil {
		return err
	}
	out, err := set.ToJSON()
	if err != nil {
		return err
	}
	fmt.Fprintf(cc.Out, "%s\n", out)
	return nil
}

func mergeDocs(cfg *MergeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Merge.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: merge takes exactly two files", cli.ErrUsage)
	}
	s, tr, err := cfg.loadSchema()
	if err != nil {
		return err
	}
	lhs, err := cfg.loadTyped(cc, args[0], s, tr)
	if err != nil {
		return err
	}
	rhs, err := cfg.loadTyped(cc, args[1], s, tr)
	if err != nil {
		return err
	}
	merged, err := lhs.Merge(rhs)
	if err != nil {
		return err
	}
	return cfg.writeValue(cc.Out, merged.AsValue())
}

func compareDocs(cfg *CompareConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Compare.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: compare takes exactly two files", cli.ErrUsage)
	}
	s, tr, err := cfg.loadSchema()
	if err != nil {
		return err
	}
	lhs, err := cfg.loadTyped(cc, args[0], s, tr)
	if err != nil {
		return err
	}
	rhs, err := cfg.loadTyped(cc, args[1], s, tr)
	if err != nil {
		return err
	}
	comparison, err := lhs.Compare(rhs)
	if err != nil {
		return err
	}
	if comparison.IsSame() {
		return nil
	}
	p := &comparePrinter{
		w:     cc.Out,
		color: cfg.Color || outIsTerminal(cc.Out),
		lhs:   lhs.AsValue(),
		rhs:   rhs.AsValue(),
	}
	p.section("removed", comparison.Removed, color.FgRed, p.removedLine)
	p.section("modified", comparison.Modified, color.FgYellow, p.modifiedLine)
	p.section("added", comparison.Added, color.FgGreen, p.addedLine)
	return cli.ExitCodeErr(1)
}

func outIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

type comparePrinter struct {
	w        io.Writer
	color    bool
	lhs, rhs *value.Value
}

func (p *comparePrinter) section(name string, set *fieldpath.Set, attr color.Attribute, line func(fieldpath.Path) string) {
	if set.Empty() {
		return
	}
	fmt.Fprintf(p.w, "%s:\n", name)
	set.Iterate(func(path fieldpath.Path) {
		text := line(path)
		if p.color {
			text = color.New(attr).Sprint(text)
		}
		fmt.Fprintf(p.w, "  %s\n", text)
	})
}

func (p *comparePrinter) removedLine(path fieldpath.Path) string {
	return fmt.Sprintf("%v: %v", path, valueAt(p.lhs, path))
}

func (p *comparePrinter) addedLine(path fieldpath.Path) string {
	return fmt.Sprintf("%v: %v", path, valueAt(p.rhs, path))
}

func (p *comparePrinter) modifiedLine(path fieldpath.Path) string {
	before, after := valueAt(p.lhs, path), valueAt(p.rhs, path)
	if p.color && before != nil && after != nil &&
		before.Kind == value.StringKind && after.Kind == value.StringKind {
		dmp := diffpatch.New()
		diffs := dmp.DiffMain(before.Str, after.Str, false)
		return fmt.Sprintf("%v: %s", path, dmp.DiffPrettyText(diffs))
	}
	return fmt.Sprintf("%v: %v -> %v", path, before, after)
}

// valueAt follows a path down a value tree for display purposes. Nil
// means the path leads nowhere.
func valueAt(v *value.Value, path fieldpath.Path) *value.Value {
	for _, pe := range path {
		if v == nil {
			return nil
		}
		switch {
		case pe.FieldName != nil:
			if v.Kind != value.MapKind {
				return nil
			}
			next, ok := v.Map.Get(*pe.FieldName)
			if !ok {
				return nil
			}
			v = next
		case pe.Index != nil:
			if v.Kind != value.ListKind || *pe.Index < 0 || *pe.Index >= len(v.Items) {
				return nil
			}
			v = v.Items[*pe.Index]
		case pe.Key != nil:
			v = findKeyedItem(v, *pe.Key)
		case pe.Value != nil:
			v = findEqualItem(v, pe.Value)
		default:
			return nil
		}
	}
	return v
}

func findKeyedItem(v *value.Value, key value.FieldList) *value.Value {
	if v.Kind != value.ListKind {
		return nil
	}
	for _, item := range v.Items {
		if item == nil || item.Kind != value.MapKind {
			continue
		}
		match := true
		for _, f := range key {
			got, ok := item.Map.Get(f.Name)
			if !ok || !got.Equals(f.Value) {
				match = false
				break
			}
		}
		if match {
			return item
		}
	}
	return nil
}

func findEqualItem(v *value.Value, want *value.Value) *value.Value {
	if v.Kind != value.ListKind {
		return nil
	}
	for _, item := range v.Items {
		if item.Equals(want) {
			return item
		}
	}
	return nil
}

func mergePatch(cfg *MergePatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.MergePatch.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: mergepatch takes exactly two files", cli.ErrUsage)
	}
	lhs, err := cfg.loadValue(cc, args[0])
	if err != nil {
		return err
	}
	rhs, err := cfg.loadValue(cc, args[1])
	if err != nil {
		return err
	}
	lhsJSON, err := lhs.ToJSON()
	if err != nil {
		return err
	}
	rhsJSON, err := rhs.ToJSON()
	if err != nil {
		return err
	}
	patch, err := jsonpatch.CreateMergePatch(lhsJSON, rhsJSON)
	if err != nil {
		return fmt.Errorf("error creating merge patch: %w", err)
	}
	fmt.Fprintf(cc.Out, "%s\n", patch)
	return nil
}

func convertOpenAPI(cfg *ConvertConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Convert.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: convert takes exactly one file", cli.ErrUsage)
	}
	doc, err := cfg.loadValue(cc, args[0])
	if err != nil {
		return err
	}
	s, errs := schemaconv.FromOpenAPI(doc)
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "convert: %v\n", e)
	}
	if s == nil {
		return cli.ExitCodeErr(1)
	}
	out, err := s.ToYAML()
	if err != nil {
		return err
	}
	_, err = cc.Out.Write(out)
	return err
}
