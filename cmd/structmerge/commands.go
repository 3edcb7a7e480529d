package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "o",
		Description: "output file (default stdout)",
		Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
	})

	return cli.NewCommandAt(&cfg.Main, "structmerge").
		WithSynopsis("structmerge [opts] command [opts]").
		WithDescription("structmerge merges, compares and validates structured documents with per-field ownership semantics.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return structmergeMain(cfg, cc, args)
		}).
		WithSubs(
			ListTypesCommand(cfg),
			ValidateCommand(cfg),
			FieldsetCommand(cfg),
			MergeCommand(cfg),
			CompareCommand(cfg),
			MergePatchCommand(cfg),
			ConvertCommand(cfg))
}

func structmergeMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	defer func() {
		if cfg.CloseOut != nil {
			cfg.CloseOut()
		}
	}()
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.J && cfg.Y {
		return fmt.Errorf("%w: must specify at most one of -j[son] -y[aml]", cli.ErrUsage)
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func ListTypesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ListTypesConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.ListTypes, "list-types").
		WithAliases("lt").
		WithSynopsis("list-types -schema <file>").
		WithDescription("list the types a schema defines").
		WithRun(func(cc *cli.Context, args []string) error {
			return listTypes(cfg, cc, args)
		})
}

func ValidateCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ValidateConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Validate, "validate").
		WithAliases("val", "check").
		WithSynopsis("validate -schema <file> [-type name] [files]").
		WithDescription("validate documents against a schema").
		WithRun(func(cc *cli.Context, args []string) error {
			return validate(cfg, cc, args)
		})
}

func FieldsetCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FieldsetConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Fieldset, "fieldset").
		WithAliases("fs").
		WithSynopsis("fieldset -schema <file> [-type name] [file]").
		WithDescription("print the field set of a document in wire format").
		WithRun(func(cc *cli.Context, args []string) error {
			return fieldset(cfg, cc, args)
		})
}

func MergeCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &MergeConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Merge, "merge").
		WithAliases("m").
		WithSynopsis("merge -schema <file> [-type name] <lhs> <rhs>").
		WithDescription("merge two documents, rhs winning where both speak").
		WithRun(func(cc *cli.Context, args []string) error {
			return mergeDocs(cfg, cc, args)
		})
}

func CompareCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CompareConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Compare, "compare").
		WithAliases("c", "cmp").
		WithSynopsis("compare [-color] -schema <file> [-type name] <lhs> <rhs>").
		WithDescription("compare two documents field by field").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return compareDocs(cfg, cc, args)
		})
}

func MergePatchCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &MergePatchConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.MergePatch, "mergepatch").
		WithAliases("mp").
		WithSynopsis("mergepatch <lhs> <rhs>").
		WithDescription("print the RFC 7386 merge patch turning lhs into rhs").
		WithRun(func(cc *cli.Context, args []string) error {
			return mergePatch(cfg, cc, args)
		})
}

func ConvertCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ConvertConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Convert, "convert").
		WithAliases("conv").
		WithSynopsis("convert <openapi-file>").
		WithDescription("convert an OpenAPI document to the schema authoring format").
		WithRun(func(cc *cli.Context, args []string) error {
			return convertOpenAPI(cfg, cc, args)
		})
}
