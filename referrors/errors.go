package referrors

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies the kind of a resolution failure.
type Code string

// Resolution error codes.
const (
	CodeParsePointer          Code = "PARSE_POINTER"
	CodePointerMissing        Code = "POINTER_MISSING"
	CodeResolveURI            Code = "RESOLVE_URI"
	CodeParseURI              Code = "PARSE_URI"
	CodeResolvePointer        Code = "RESOLVE_POINTER"
	CodeTransformDereferenced Code = "TRANSFORM_DEREFERENCED"
)

// Codes returns all resolution error codes in a stable order.
func Codes() []Code {
	return []Code{
		CodeParsePointer,
		CodePointerMissing,
		CodeResolveURI,
		CodeParseURI,
		CodeResolvePointer,
		CodeTransformDereferenced,
	}
}

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrResolve matches any ResolveError.
	ErrResolve = errors.New("resolve error")

	// ErrParsePointer indicates an unparseable JSON Pointer.
	ErrParsePointer = errors.New("invalid JSON pointer")

	// ErrPointerMissing indicates a JSON Pointer with no target.
	ErrPointerMissing = errors.New("JSON pointer target missing")

	// ErrResolveURI indicates an authority could not be fetched.
	ErrResolveURI = errors.New("uri resolution failed")

	// ErrParseURI indicates an invalid reference URI.
	ErrParseURI = errors.New("invalid uri")

	// ErrResolvePointer indicates a pointer target could not be resolved.
	ErrResolvePointer = errors.New("pointer resolution failed")

	// ErrTransformDereferenced indicates a dereference transform failure.
	ErrTransformDereferenced = errors.New("dereference transform failed")

	// ErrReference indicates a scheme resolver failure.
	ErrReference = errors.New("reference error")

	// ErrPathTraversal indicates a file reference escaped the allowed directory.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrParse indicates fetched content could not be decoded.
	ErrParse = errors.New("parse error")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

var codeSentinels = map[Code]error{
	CodeParsePointer:          ErrParsePointer,
	CodePointerMissing:        ErrPointerMissing,
	CodeResolveURI:            ErrResolveURI,
	CodeParseURI:              ErrParseURI,
	CodeResolvePointer:        ErrResolvePointer,
	CodeTransformDereferenced: ErrTransformDereferenced,
}

// Sentinel returns the sentinel error for a code, or nil for unknown codes.
func (c Code) Sentinel() error {
	return codeSentinels[c]
}

// ResolveError is a single resolution failure attached to a resolve result.
type ResolveError struct {
	// Code is the failure kind
	Code Code `json:"code" yaml:"code"`
	// Message describes the failure
	Message string `json:"message" yaml:"message"`
	// Path is the location in the document the failure applies to
	Path []string `json:"path" yaml:"path"`
	// URI is the authority (with fragment, if any) being resolved
	URI string `json:"uri,omitempty" yaml:"uri,omitempty"`
	// URIStack is the chain of authorities being resolved when the failure occurred
	URIStack []string `json:"uriStack" yaml:"uriStack"`
	// PointerStack is the chain of internal pointers being crawled
	PointerStack []string `json:"pointerStack" yaml:"pointerStack"`
	// Cause is the underlying error, if any
	Cause error `json:"-" yaml:"-"`
}

// Error returns a human-readable error message.
func (e *ResolveError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Path) > 0 {
		b.WriteString(" (at /")
		b.WriteString(strings.Join(e.Path, "/"))
		b.WriteString(")")
	}
	if e.Cause != nil && !strings.Contains(e.Message, e.Cause.Error()) {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for error chaining.
func (e *ResolveError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// Matches ErrResolve and the sentinel of the error's code.
func (e *ResolveError) Is(target error) bool {
	if target == ErrResolve {
		return true
	}
	if s := e.Code.Sentinel(); s != nil && target == s {
		return true
	}
	return false
}

// ReferenceError represents a scheme resolver failure for one authority.
type ReferenceError struct {
	// Ref is the authority that failed to resolve
	Ref string
	// Scheme is the scheme used to fetch it ("file", "http", ...)
	Scheme string
	// IsPathTraversal is true if the file reference escaped the allowed base directory
	IsPathTraversal bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.IsPathTraversal {
		msg = "path traversal detected"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrReference, and ErrPathTraversal when IsPathTraversal is set.
func (e *ReferenceError) Is(target error) bool {
	if target == ErrReference {
		return true
	}
	return target == ErrPathTraversal && e.IsPathTraversal
}

// ParseError represents a failure to decode fetched content.
type ParseError struct {
	// Path is the authority or source identifier
	Path string
	// Message describes the decoding failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ResourceLimitError represents a resource exhaustion condition.
type ResourceLimitError struct {
	// ResourceType identifies what limit was exceeded
	// Common values: "uri_depth", "file_size"
	ResourceType string
	// Limit is the configured maximum value
	Limit int64
	// Actual is the value that exceeded the limit (may be 0 if unknown)
	Actual int64
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := "resource limit exceeded"
	if e.ResourceType != "" {
		msg += ": " + e.ResourceType
	}
	if e.Limit > 0 {
		msg += fmt.Sprintf(" (limit: %d", e.Limit)
		if e.Actual > 0 {
			msg += fmt.Sprintf(", actual: %d", e.Actual)
		}
		msg += ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns nil as ResourceLimitError has no underlying cause.
func (e *ResourceLimitError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}

// ConfigError represents an invalid configuration or input.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
