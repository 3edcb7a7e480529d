package main

import (
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/applyops/structmerge/schema"
	"github.com/applyops/structmerge/typed"
	"github.com/applyops/structmerge/value"
)

type MainConfig struct {
	SchemaFile string `cli:"name=schema desc='schema file in YAML authoring format'"`
	TypeName   string `cli:"name=type desc='root type name (default: first type in the schema)'"`

	J bool `cli:"name=j aliases=json desc='output in json'"`
	Y bool `cli:"name=y aliases=yaml desc='output in yaml (default)'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
}

func (cfg *MainConfig) outOpt(cc *cli.Context, a string) (any, error) {
	cfg.Out = a
	if a == "-" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.Out, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	cc.Out = f
	cfg.CloseOut = f.Close
	return nil, nil
}

// loadSchema reads the -schema file and picks the root type. Without a
// schema everything is handled as deduced untyped data.
func (cfg *MainConfig) loadSchema() (*schema.Schema, schema.TypeRef, error) {
	if cfg.SchemaFile == "" {
		return schema.DeducedSchema(), schema.DeducedRef(), nil
	}
	data, err := os.ReadFile(cfg.SchemaFile)
	if err != nil {
		return nil, schema.TypeRef{}, fmt.Errorf("error reading schema %s: %w", cfg.SchemaFile, err)
	}
	s, err := schema.FromYAML(data)
	if err != nil {
		return nil, schema.TypeRef{}, fmt.Errorf("error parsing schema %s: %w", cfg.SchemaFile, err)
	}
	name := cfg.TypeName
	if name == "" {
		if len(s.Types) == 0 {
			return nil, schema.TypeRef{}, fmt.Errorf("schema %s defines no types", cfg.SchemaFile)
		}
		name = s.Types[0].Name
	}
	if _, ok := s.FindNamedType(name); !ok {
		return nil, schema.TypeRef{}, fmt.Errorf("schema %s does not define type %q", cfg.SchemaFile, name)
	}
	return s, schema.NamedRef(name), nil
}

func (cfg *MainConfig) loadValue(cc *cli.Context, arg string) (*value.Value, error) {
	var r io.Reader
	if arg == "-" {
		r = cc.In
	} else {
		f, err := os.Open(arg)
		if err != nil {
			return nil, fmt.Errorf("error opening %s: %w", arg, err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	v, err := value.FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", arg, err)
	}
	return v, nil
}

func (cfg *MainConfig) loadTyped(cc *cli.Context, arg string, s *schema.Schema, tr schema.TypeRef) (*typed.TypedValue, error) {
	v, err := cfg.loadValue(cc, arg)
	if err != nil {
		return nil, err
	}
	tv, err := typed.AsTyped(v, s, tr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", arg, err)
	}
	return tv, nil
}

func (cfg *MainConfig) writeValue(w io.Writer, v *value.Value) error {
	var out []byte
	var err error
	if cfg.J {
		out, err = v.ToJSON()
		out = append(out, '\n')
	} else {
		out, err = v.ToYAML()
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

type ListTypesConfig struct {
	*MainConfig
	ListTypes *cli.Command
}

type ValidateConfig struct {
	*MainConfig
	Validate *cli.Command
}

type FieldsetConfig struct {
	*MainConfig
	Fieldset *cli.Command
}

type MergeConfig struct {
	*MainConfig
	Merge *cli.Command
}

type CompareConfig struct {
	*MainConfig
	Color bool `cli:"name=color desc='force colored output'"`

	Compare *cli.Command
}

type MergePatchConfig struct {
	*MainConfig
	MergePatch *cli.Command
}

type ConvertConfig struct {
	*MainConfig
	Convert *cli.Command
}
