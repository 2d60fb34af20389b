// Package testutil provides test utilities and fixtures for unit tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/erraggy/refresolver/uri"
	"go.yaml.in/yaml/v4"
)

// NewPetStoreDocument creates a small API description with internal
// references, including one nested reference and one chain.
func NewPetStoreDocument() map[string]any {
	return map[string]any{
		"paths": map[string]any{
			"/pets": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": map[string]any{"$ref": "#/components/responses/PetList"},
					},
				},
			},
		},
		"components": map[string]any{
			"responses": map[string]any{
				"PetList": map[string]any{
					"description": "a list of pets",
					"schema": map[string]any{
						"type":  "array",
						"items": map[string]any{"$ref": "#/components/schemas/Pet"},
					},
				},
			},
			"schemas": map[string]any{
				"Pet": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
						"tag":  map[string]any{"$ref": "#/components/schemas/Tag"},
					},
				},
				"Tag": map[string]any{"type": "string"},
			},
		},
	}
}

// WriteFiles writes docs into a fresh temporary directory and returns the
// directory. Names ending in ".json" are written as JSON, everything else
// as YAML. Names may contain slashes.
func WriteFiles(t *testing.T, docs map[string]any) string {
	t.Helper()

	dir := t.TempDir()
	for name, doc := range docs {
		var data []byte
		var err error
		if strings.HasSuffix(name, ".json") {
			data, err = json.MarshalIndent(doc, "", "  ")
		} else {
			data, err = yaml.Marshal(doc)
		}
		if err != nil {
			t.Fatalf("Failed to marshal %s: %v", name, err)
		}

		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(p, data, 0o600); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

// WriteTempYAML writes doc to a temporary YAML file and returns its path.
func WriteTempYAML(t *testing.T, doc any) string {
	t.Helper()
	return filepath.Join(WriteFiles(t, map[string]any{"test.yaml": doc}), "test.yaml")
}

// WriteTempJSON writes doc to a temporary JSON file and returns its path.
func WriteTempJSON(t *testing.T, doc any) string {
	t.Helper()
	return filepath.Join(WriteFiles(t, map[string]any{"test.json": doc}), "test.json")
}

// MemResolver serves documents from memory and counts fetches. It
// satisfies scheme.Resolver.
type MemResolver struct {
	mu    sync.Mutex
	docs  map[string]any
	calls map[string]int

	// Gen, when set, produces documents that are not in docs.
	Gen func(ref *uri.URI) (any, bool)
}

// NewMemResolver creates a MemResolver over docs, keyed by authority
// without fragment (for example "mem://specs/pet.yaml").
func NewMemResolver(docs map[string]any) *MemResolver {
	return &MemResolver{docs: docs, calls: make(map[string]int)}
}

// Resolve implements scheme.Resolver.
func (m *MemResolver) Resolve(_ context.Context, ref *uri.URI) (any, error) {
	key := ref.CacheKey()

	m.mu.Lock()
	m.calls[key]++
	doc, ok := m.docs[key]
	m.mu.Unlock()

	if !ok && m.Gen != nil {
		doc, ok = m.Gen(ref)
	}
	if !ok {
		return nil, fmt.Errorf("mem: %s not found", key)
	}
	return doc, nil
}

// Calls returns how often key was fetched.
func (m *MemResolver) Calls(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

// TotalCalls returns the number of fetches across all keys.
func (m *MemResolver) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}
