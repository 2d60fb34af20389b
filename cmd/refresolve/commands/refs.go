package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/erraggy/refresolver/internal/cliutil"
	"github.com/erraggy/refresolver/resolver"
)

// RefsFlags contains flags for the refs command
type RefsFlags struct {
	sourceFlags
	Format string
}

// SetupRefsFlags creates and configures a FlagSet for the refs command.
func SetupRefsFlags() (*flag.FlagSet, *RefsFlags) {
	fs := flag.NewFlagSet("refs", flag.ContinueOnError)
	flags := &RefsFlags{}

	flags.register(fs)
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		output := fs.Output()
		cliutil.Writef(output, "Usage: refresolve refs [flags] <file|url|->\n\n")
		cliutil.Writef(output, "List every $ref in a document without resolving it.\n\n")
		cliutil.Writef(output, "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(output, "\nExamples:\n")
		cliutil.Writef(output, "  refresolve refs openapi.yaml\n")
		cliutil.Writef(output, "  refresolve refs --format json openapi.yaml\n")
	}

	return fs, flags
}

// HandleRefs executes the refs command
func HandleRefs(args []string) error {
	return runRefs(context.Background(), args, StdStreams())
}

func runRefs(ctx context.Context, args []string, streams Streams) error {
	fs, flags := SetupRefsFlags()
	fs.SetOutput(streams.Err)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("refs command requires exactly one file path, URL, or '-' for stdin")
	}
	if err := ValidateOutputFormat(flags.Format, FormatText, FormatJSON, FormatYAML); err != nil {
		return err
	}

	source := fs.Arg(0)
	target, err := flags.target(source)
	if err != nil {
		return err
	}
	r, reg, err := flags.newResolver(streams.Err)
	if err != nil {
		return err
	}

	var doc any
	base := flags.Base
	if target == StdinFilePath {
		doc, err = readStdin(streams.In)
	} else {
		doc, err = fetch(ctx, reg, target)
		base = target
	}
	if err != nil {
		return err
	}

	refs, err := r.Refs(ctx, doc, resolver.WithBaseURI(base))
	if err != nil {
		return err
	}

	if flags.Format != FormatText {
		data, err := MarshalDocument(refs, flags.Format)
		if err != nil {
			return err
		}
		cliutil.Writef(streams.Out, "%s\n", data)
		return nil
	}

	tw := tabwriter.NewWriter(streams.Out, 0, 4, 2, ' ', 0)
	cliutil.Writef(tw, "POINTER\tKIND\tTARGET\n")
	for _, ref := range refs {
		kind := "internal"
		if ref.External {
			kind = "external"
		}
		dest := ref.Target
		if ref.Error != "" {
			kind, dest = "invalid", ref.Error
		}
		cliutil.Writef(tw, "%s\t%s\t%s\n", ref.Pointer, kind, dest)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !flags.Quiet {
		cliutil.Writef(streams.Err, "\nTotal: %d reference(s)\n", len(refs))
	}
	return nil
}
