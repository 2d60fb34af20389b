// Package commands provides CLI command handlers for refresolve.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/erraggy/refresolver/internal/cliutil"
	"github.com/erraggy/refresolver/resolver"
	"github.com/erraggy/refresolver/scheme"
	"github.com/erraggy/refresolver/uri"
	"go.yaml.in/yaml/v4"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ErrUnresolved is returned when resolution finished but recorded at least
// one error. The resolved document has still been written.
var ErrUnresolved = errors.New("document has unresolved references")

// Streams bundles the reader and writers a command uses.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process's standard streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format '%s'. Valid formats: %s", format, strings.Join(allowed, ", "))
}

// MarshalDocument marshals a document to bytes in the specified format.
func MarshalDocument(doc any, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("invalid format for structured output: %s", format)
	}
}

// FormatSourcePath returns a display-friendly path for the input document.
// Returns "<stdin>" if the path is StdinFilePath, otherwise returns the path as-is.
func FormatSourcePath(path string) string {
	if path == StdinFilePath {
		return "<stdin>"
	}
	return path
}

// isURL reports whether the argument names an http or https document.
func isURL(arg string) bool {
	lower := strings.ToLower(arg)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// newLogger returns a text logger on w. Verbose enables debug output,
// quiet limits output to errors.
func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// sourceFlags are the flags shared by commands that load a document.
type sourceFlags struct {
	Base     string
	HTTP     bool
	Insecure bool
	NoRemote bool
	Quiet    bool
	Verbose  bool
}

func (f *sourceFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.Base, "base", "", "base URI for relative references when reading stdin")
	fs.BoolVar(&f.HTTP, "http", false, "allow fetching http and https documents")
	fs.BoolVar(&f.Insecure, "insecure", false, "disable TLS certificate verification for HTTPS references")
	fs.BoolVar(&f.NoRemote, "no-remote", false, "keep external references instead of fetching them")
	fs.BoolVar(&f.Quiet, "q", false, "quiet mode: only output the document and errors")
	fs.BoolVar(&f.Quiet, "quiet", false, "quiet mode: only output the document and errors")
	fs.BoolVar(&f.Verbose, "verbose", false, "log resolution progress to stderr")
}

// newResolver builds a resolver from the shared flags, along with the
// scheme registry it fetches documents through.
func (f *sourceFlags) newResolver(stderr io.Writer) (*resolver.Resolver, *scheme.Registry, error) {
	reg, err := scheme.NewDefaultRegistry(
		scheme.WithHTTP(f.HTTP),
		scheme.WithInsecureSkipVerify(f.Insecure),
	)
	if err != nil {
		return nil, nil, err
	}
	r, err := resolver.New(
		resolver.WithResolvers(reg),
		resolver.WithDereferenceRemote(!f.NoRemote),
		resolver.WithLogger(resolver.NewSlogAdapter(newLogger(stderr, f.Verbose, f.Quiet))),
	)
	if err != nil {
		return nil, nil, err
	}
	return r, reg, nil
}

// fetch loads the document named by target without resolving it.
func fetch(ctx context.Context, reg *scheme.Registry, target string) (any, error) {
	ref, err := uri.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid reference %s: %w", target, err)
	}
	name := ref.Scheme()
	if name == "" {
		name = uri.SchemeFile
	}
	doc, err := reg.Fetch(ctx, name, ref.WithoutFragment())
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", target, err)
	}
	return doc, nil
}

// target validates the input argument and returns the reference to load.
// Local paths are made absolute so relative references resolve against
// the file's directory.
func (f *sourceFlags) target(arg string) (string, error) {
	if arg == StdinFilePath {
		return arg, nil
	}
	if isURL(arg) {
		if !f.HTTP {
			return "", fmt.Errorf("reading %s requires --http", arg)
		}
		return arg, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", arg, err)
	}
	return filepath.ToSlash(abs), nil
}

// readStdin decodes a JSON or YAML document from r.
func readStdin(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	doc, err := scheme.Decode(data, scheme.FormatUnknown)
	if err != nil {
		return nil, fmt.Errorf("decoding stdin: %w", err)
	}
	return doc, nil
}

// printIssues writes resolution errors and, unless quiet, warnings to w.
func printIssues(w io.Writer, res *resolver.Result, quiet bool) {
	if len(res.Errors) > 0 {
		cliutil.Writef(w, "Errors (%d):\n", len(res.Errors))
		for _, e := range res.Errors {
			cliutil.Writef(w, "  %s\n", e.Error())
		}
	}
	if !quiet && len(res.Warnings) > 0 {
		cliutil.Writef(w, "Warnings (%d):\n", len(res.Warnings))
		for _, warning := range res.Warnings {
			cliutil.Writef(w, "  %s\n", warning)
		}
	}
}
