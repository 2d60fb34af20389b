package scheme

import (
	"encoding/json"

	"github.com/erraggy/refresolver/document"
	"github.com/erraggy/refresolver/internal/httputil"
	"github.com/erraggy/refresolver/referrors"
	"go.yaml.in/yaml/v4"
)

// Format is the serialization of a fetched document.
type Format = httputil.Format

// Document formats accepted by Decode.
const (
	FormatJSON    = httputil.FormatJSON
	FormatYAML    = httputil.FormatYAML
	FormatUnknown = httputil.FormatUnknown
)

// Decode parses data into a document value. JSON input takes the
// encoding/json fast path; everything else goes through the YAML decoder,
// which also accepts JSON. FormatUnknown sniffs the content.
func Decode(data []byte, format Format) (any, error) {
	if format == FormatUnknown {
		format = httputil.FormatFromContent(data)
	}

	var v any
	if format == FormatJSON {
		if err := json.Unmarshal(data, &v); err == nil {
			return document.Normalize(v), nil
		}
		// not strict JSON; retry as YAML
		v = nil
	}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, &referrors.ParseError{Message: "failed to decode " + string(format) + " document", Cause: err}
	}
	return document.Normalize(v), nil
}
