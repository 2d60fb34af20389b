package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Origin(t *testing.T) {
	r, _ := memResolver(t, map[string]any{
		"mem://specs/pet.yaml": map[string]any{"Pet": map[string]any{"type": "object"}},
	})
	doc := map[string]any{
		"a":   ref("#/b"),
		"b":   map[string]any{"x": ref("#/c")},
		"c":   1,
		"pet": ref("mem://specs/pet.yaml#/Pet"),
	}

	res, err := r.Resolve(context.Background(), doc)
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	tests := []struct {
		name          string
		path          []string
		wantAuthority string
		wantPath      []string
		wantOK        bool
	}{
		{"internal chain", []string{"a", "x"}, "", []string{"c"}, true},
		{"single internal", []string{"b", "x"}, "", []string{"c"}, true},
		{"external", []string{"pet", "type"}, "mem://specs/pet.yaml", []string{"Pet", "type"}, true},
		{"not substituted", []string{"c"}, "", []string{"c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authority, path, ok := res.Origin(tt.path)
			assert.Equal(t, tt.wantAuthority, authority)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestResult_OriginCycle(t *testing.T) {
	res := &Result{
		RefMap:   map[string]string{"/a": "/b", "/b": "/a"},
		external: map[string]bool{},
	}

	_, _, ok := res.Origin([]string{"a", "x"})
	assert.True(t, ok)
}

func TestResult_HasErrors(t *testing.T) {
	res, err := Resolve(context.Background(), map[string]any{"a": ref("#/missing")})
	require.NoError(t, err)
	assert.True(t, res.HasErrors())

	res, err = Resolve(context.Background(), map[string]any{"a": 1})
	require.NoError(t, err)
	assert.False(t, res.HasErrors())
}
