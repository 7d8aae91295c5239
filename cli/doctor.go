package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/beanledger/loader"
)

// DoctorCmd provides doctor utilities for debugging ledger files.
type DoctorCmd struct {
	Dump   DumpCmd   `cmd:"" help:"Dump the directives loaded from a ledger file."`
	Config ConfigCmd `cmd:"" help:"Show the effective configuration."`
}

// DumpCmd prints the loaded directives in load order.
type DumpCmd struct {
	File     FileOrStdin `help:"Ledger input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Includes bool        `help:"Follow include files."`
}

func (cmd *DumpCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	var opts []loader.Option
	if cmd.Includes {
		opts = append(opts, loader.WithFollowIncludes())
	}

	result, err := cmd.File.Load(context.Background(), loader.New(opts...))
	if err != nil {
		return err
	}

	for _, d := range result.Directives {
		_, _ = fmt.Fprintf(ctx.Stdout, "%s %s\n", d.Kind(), d.Position())
		// Zero checks would call value-receiver IsZero methods through nil pointers.
		repr.New(ctx.Stdout, repr.Indent("  "), repr.OmitZero(false), repr.OmitEmpty(true)).Println(d)
	}
	return nil
}

// ConfigCmd prints the configuration after environment and flag overrides.
type ConfigCmd struct{}

func (cmd *ConfigCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.Config()
	if err != nil {
		return err
	}
	repr.New(ctx.Stdout, repr.Indent("  ")).Println(cfg)
	return nil
}
