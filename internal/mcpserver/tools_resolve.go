package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erraggy/refresolver/internal/fileutil"
	"github.com/erraggy/refresolver/pointer"
	"github.com/erraggy/refresolver/referrors"
	"github.com/erraggy/refresolver/resolver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.yaml.in/yaml/v4"
)

type resolveInput struct {
	Doc      docInput `json:"doc"                 jsonschema:"The document to resolve"`
	Pointer  string   `json:"pointer,omitempty"   jsonschema:"JSON Pointer of the subtree to resolve, e.g. /components/schemas/Pet. Defaults to the whole document"`
	NoInline bool     `json:"no_inline,omitempty" jsonschema:"Keep internal references (#/...) of the document instead of replacing them"`
	NoRemote bool     `json:"no_remote,omitempty" jsonschema:"Keep external references instead of fetching them"`
	Format   string   `json:"format,omitempty"    jsonschema:"Serialization of the returned document: json (default) or yaml"`
	Output   string   `json:"output,omitempty"    jsonschema:"File path to write the resolved document to. If set the document is not returned inline"`
}

// resolveIssue is one resolution error in tool output.
type resolveIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path"`
	URI     string `json:"uri,omitempty"`
}

type resolveOutput struct {
	Document   string            `json:"document,omitempty"`
	Format     string            `json:"format"`
	WrittenTo  string            `json:"written_to,omitempty"`
	RefMap     map[string]string `json:"ref_map,omitempty"`
	ErrorCount int               `json:"error_count"`
	Errors     []resolveIssue    `json:"errors,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
}

func handleResolve(ctx context.Context, _ *mcp.CallToolRequest, input resolveInput) (*mcp.CallToolResult, resolveOutput, error) {
	format := strings.ToLower(input.Format)
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "yaml" {
		return errResult(fmt.Errorf("invalid format %q; valid values: json, yaml", input.Format)), resolveOutput{}, nil
	}

	res, err := input.Doc.resolve(ctx,
		resolver.WithJSONPointer(input.Pointer),
		resolver.WithDereferenceInline(!input.NoInline),
		resolver.WithDereferenceRemote(!input.NoRemote),
	)
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	data, err := encodeDocument(res.Result, format)
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	output := resolveOutput{
		Format:     format,
		RefMap:     res.RefMap,
		ErrorCount: len(res.Errors),
		Errors:     toIssues(res.Errors),
		Warnings:   res.Warnings,
	}
	if len(output.RefMap) == 0 {
		output.RefMap = nil
	}

	if input.Output != "" {
		written, err := fileutil.WriteOutput(input.Output, data)
		if err != nil {
			return errResult(err), resolveOutput{}, nil
		}
		output.WrittenTo = written
	} else {
		output.Document = string(data)
	}

	return nil, output, nil
}

// encodeDocument serializes a resolved value as indented JSON or YAML.
func encodeDocument(v any, format string) ([]byte, error) {
	if format == "yaml" {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

func toIssues(errs []*referrors.ResolveError) []resolveIssue {
	issues := makeSlice[resolveIssue](len(errs))
	for _, e := range errs {
		issues = append(issues, resolveIssue{
			Code:    string(e.Code),
			Message: sanitizeText(e.Message),
			Path:    pointer.Format(e.Path),
			URI:     sanitizeText(e.URI),
		})
	}
	return issues
}
