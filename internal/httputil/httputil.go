// Package httputil provides format detection for fetched documents and
// related HTTP constants.
package httputil

import (
	"bytes"
	"mime"
	"path"
	"strings"
)

// Format is the serialization of a document.
type Format string

const (
	// FormatJSON indicates a JSON document.
	FormatJSON Format = "json"
	// FormatYAML indicates a YAML document.
	FormatYAML Format = "yaml"
	// FormatUnknown indicates the format could not be determined.
	FormatUnknown Format = "unknown"
)

// Media types recognised by FormatFromContentType.
const (
	MediaTypeJSON     = "application/json"
	MediaTypeYAML     = "application/yaml"
	MediaTypeXYAML    = "application/x-yaml"
	MediaTypeTextYAML = "text/yaml"
)

// AcceptHeader is sent with document requests.
const AcceptHeader = MediaTypeJSON + ", " + MediaTypeYAML + ";q=0.9, " + MediaTypeTextYAML + ";q=0.9, */*;q=0.5"

// FormatFromPath detects the format from a file or URL path extension.
func FormatFromPath(p string) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// FormatFromContentType detects the format from a Content-Type header value.
// Parameters such as charset are ignored, and "+json"/"+yaml" structured
// syntax suffixes are recognised.
func FormatFromContentType(contentType string) Format {
	if contentType == "" {
		return FormatUnknown
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatUnknown
	}
	switch {
	case mediaType == MediaTypeJSON, strings.HasSuffix(mediaType, "+json"):
		return FormatJSON
	case mediaType == MediaTypeYAML, mediaType == MediaTypeXYAML,
		mediaType == MediaTypeTextYAML, mediaType == "text/x-yaml",
		strings.HasSuffix(mediaType, "+yaml"):
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// FormatFromContent guesses the format from the first non-space byte:
// JSON objects and arrays start with '{' or '['; anything else is YAML.
func FormatFromContent(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\n\r")
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return FormatJSON
	}
	return FormatYAML
}

// DetectFormat combines the path extension, the Content-Type header and the
// content itself, in that order of preference.
func DetectFormat(p, contentType string, data []byte) Format {
	if f := FormatFromPath(p); f != FormatUnknown {
		return f
	}
	if f := FormatFromContentType(contentType); f != FormatUnknown {
		return f
	}
	return FormatFromContent(data)
}
