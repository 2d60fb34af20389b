package mcpserver

import (
	"context"

	"github.com/erraggy/refresolver/pointer"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type refOriginInput struct {
	Doc  docInput `json:"doc"  jsonschema:"The document to resolve"`
	Path string   `json:"path" jsonschema:"JSON Pointer into the resolved document, e.g. /paths/~1pets/get/responses/200"`
}

type refOriginOutput struct {
	// Document is the authority of the supplying document; empty for the
	// input document itself when it was given inline.
	Document    string `json:"document"`
	Path        string `json:"path"`
	Substituted bool   `json:"substituted"`
	ErrorCount  int    `json:"error_count"`
}

func handleRefOrigin(ctx context.Context, _ *mcp.CallToolRequest, input refOriginInput) (*mcp.CallToolResult, refOriginOutput, error) {
	path, err := pointer.Parse(input.Path)
	if err != nil {
		return errResult(err), refOriginOutput{}, nil
	}

	res, err := input.Doc.resolve(ctx)
	if err != nil {
		return errResult(err), refOriginOutput{}, nil
	}

	document, rest, substituted := res.Origin(path)
	return nil, refOriginOutput{
		Document:    sanitizeText(document),
		Path:        pointer.Format(rest),
		Substituted: substituted,
		ErrorCount:  len(res.Errors),
	}, nil
}
