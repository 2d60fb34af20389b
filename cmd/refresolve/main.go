package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erraggy/refresolver"
	"github.com/erraggy/refresolver/cmd/refresolve/commands"
	"github.com/erraggy/refresolver/internal/mcpserver"
)

var commandNames = []string{"resolve", "refs", "mcp", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version", "-v", "--version":
		fmt.Printf("refresolve v%s\n", refresolver.Version())
	case "help", "-h", "--help":
		printUsage()
	case "resolve":
		exitOnError(commands.HandleResolve(os.Args[2:]))
	case "refs":
		exitOnError(commands.HandleRefs(os.Args[2:]))
	case "mcp":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err := mcpserver.Run(ctx)
		stop()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		exitOnError(err)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if suggestion := suggestCommand(command); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", suggestion)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// suggestCommand returns the closest known command within an edit
// distance of 2, or "" when nothing is close enough.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := editDistance(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// editDistance is the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func printUsage() {
	fmt.Println(`refresolve - JSON Reference resolver

Usage:
  refresolve <command> [options]

Commands:
  resolve     Replace every $ref in a JSON or YAML document with its target
  refs        List the $refs of a document without resolving them
  mcp         Run the MCP server on stdio
  version     Show version information
  help        Show this help message

Examples:
  refresolve resolve openapi.yaml
  refresolve resolve --pointer /components/schemas/Pet -o pet.json openapi.yaml
  refresolve resolve --http https://example.com/api/openapi.yaml
  refresolve refs --format json schema.json
  cat schema.yaml | refresolve resolve --format yaml -

Run 'refresolve <command> --help' for more information on a command.`)
}
