package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/erraggy/refresolver"
	"github.com/erraggy/refresolver/internal/cliutil"
	"github.com/erraggy/refresolver/internal/fileutil"
	"github.com/erraggy/refresolver/resolver"
)

// ResolveFlags contains flags for the resolve command
type ResolveFlags struct {
	sourceFlags
	Pointer  string
	NoInline bool
	Format   string
	Output   string
}

// SetupResolveFlags creates and configures a FlagSet for the resolve command.
// Returns the FlagSet and a ResolveFlags struct with bound flag variables.
func SetupResolveFlags() (*flag.FlagSet, *ResolveFlags) {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	flags := &ResolveFlags{}

	flags.register(fs)
	fs.StringVar(&flags.Pointer, "pointer", "", "JSON Pointer of the subtree to resolve (default: the whole document)")
	fs.BoolVar(&flags.NoInline, "no-inline", false, "keep internal (#/...) references instead of replacing them")
	fs.StringVar(&flags.Format, "format", FormatJSON, "output format: json or yaml")
	fs.StringVar(&flags.Output, "o", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Output, "output", "", "output file path (default: stdout)")

	fs.Usage = func() {
		output := fs.Output()
		cliutil.Writef(output, "Usage: refresolve resolve [flags] <file|url|->\n\n")
		cliutil.Writef(output, "Replace every $ref in a JSON or YAML document with the value it points to.\n\n")
		cliutil.Writef(output, "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(output, "\nExamples:\n")
		cliutil.Writef(output, "  refresolve resolve openapi.yaml\n")
		cliutil.Writef(output, "  refresolve resolve --pointer /components/schemas/Pet openapi.yaml\n")
		cliutil.Writef(output, "  refresolve resolve --format yaml -o resolved.yaml openapi.yaml\n")
		cliutil.Writef(output, "  refresolve resolve --http https://example.com/api/openapi.yaml\n")
		cliutil.Writef(output, "  cat schema.json | refresolve resolve --base ./schemas/root.json -q -\n")
		cliutil.Writef(output, "\nHTTP References:\n")
		cliutil.Writef(output, "  --http enables fetching documents and references over HTTP/HTTPS.\n")
		cliutil.Writef(output, "  This is disabled by default for security (SSRF protection).\n")
		cliutil.Writef(output, "\nExit Codes:\n")
		cliutil.Writef(output, "  0    All references resolved\n")
		cliutil.Writef(output, "  1    Invalid arguments, unreadable input, or at least one unresolved reference\n")
	}

	return fs, flags
}

// HandleResolve executes the resolve command
func HandleResolve(args []string) error {
	return runResolve(context.Background(), args, StdStreams())
}

func runResolve(ctx context.Context, args []string, streams Streams) error {
	fs, flags := SetupResolveFlags()
	fs.SetOutput(streams.Err)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("resolve command requires exactly one file path, URL, or '-' for stdin")
	}
	if err := ValidateOutputFormat(flags.Format, FormatJSON, FormatYAML); err != nil {
		return err
	}

	source := fs.Arg(0)
	target, err := flags.target(source)
	if err != nil {
		return err
	}
	r, _, err := flags.newResolver(streams.Err)
	if err != nil {
		return err
	}

	opts := []resolver.Option{resolver.WithDereferenceInline(!flags.NoInline)}
	if flags.Pointer != "" {
		opts = append(opts, resolver.WithJSONPointer(flags.Pointer))
	}

	startTime := time.Now()
	var res *resolver.Result
	if target == StdinFilePath {
		doc, err := readStdin(streams.In)
		if err != nil {
			return err
		}
		res, err = r.Resolve(ctx, doc, append(opts, resolver.WithBaseURI(flags.Base))...)
		if err != nil {
			return err
		}
	} else {
		res, err = r.ResolveURI(ctx, target, opts...)
		if err != nil {
			return fmt.Errorf("loading %s: %w", source, err)
		}
	}
	totalTime := time.Since(startTime)

	data, err := MarshalDocument(res.Result, flags.Format)
	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", flags.Format, err)
	}

	// Always print errors to stderr, even in quiet mode
	printIssues(streams.Err, res, flags.Quiet)

	if flags.Output != "" {
		written, err := fileutil.WriteOutput(flags.Output, data)
		if err != nil {
			return err
		}
		if !flags.Quiet {
			cliutil.Writef(streams.Err, "Output: %s\n", written)
		}
	} else {
		cliutil.Writef(streams.Out, "%s\n", data)
	}

	if !flags.Quiet {
		cliutil.Writef(streams.Err, "refresolve version: %s\n", refresolver.Version())
		cliutil.Writef(streams.Err, "Document: %s\n", FormatSourcePath(source))
		cliutil.Writef(streams.Err, "References substituted: %d\n", len(res.RefMap))
		cliutil.Writef(streams.Err, "Total Time: %v\n", totalTime)
	}

	if res.HasErrors() {
		return fmt.Errorf("%w: %d error(s)", ErrUnresolved, len(res.Errors))
	}
	return nil
}
