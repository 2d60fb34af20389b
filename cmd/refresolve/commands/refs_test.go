package commands

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRefs_Text(t *testing.T) {
	streams, out, errOut := testStreams("")

	err := runRefs(context.Background(), []string{writeSplitDocs(t)}, streams)
	require.NoError(t, err)

	lines := splitLines(out.String())
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "POINTER")
	assert.Contains(t, lines[1], "/alias")
	assert.Contains(t, lines[1], "internal")
	assert.Contains(t, lines[2], "/pet")
	assert.Contains(t, lines[2], "external")
	assert.Contains(t, errOut.String(), "Total: 2 reference(s)")
}

func TestRunRefs_JSON(t *testing.T) {
	streams, out, _ := testStreams("")

	err := runRefs(context.Background(), []string{"--format", "json", writeSplitDocs(t)}, streams)
	require.NoError(t, err)

	var refs []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &refs))
	require.Len(t, refs, 2)
	assert.Equal(t, "/alias", refs[0]["pointer"])
	assert.Equal(t, "#/pet", refs[0]["ref"])
	assert.Equal(t, false, refs[0]["external"])
	assert.Equal(t, "/pet", refs[1]["pointer"])
	assert.Equal(t, true, refs[1]["external"])
}

func TestRunRefs_Stdin(t *testing.T) {
	streams, out, _ := testStreams("a:\n  $ref: '#/b'\nb: 1\n")

	err := runRefs(context.Background(), []string{"-q", "-"}, streams)
	require.NoError(t, err)

	lines := splitLines(out.String())
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "/a")
}

func TestRunRefs_Errors(t *testing.T) {
	t.Run("no args", func(t *testing.T) {
		streams, _, _ := testStreams("")
		assert.Error(t, runRefs(context.Background(), nil, streams))
	})
	t.Run("invalid format", func(t *testing.T) {
		streams, _, _ := testStreams("")
		err := runRefs(context.Background(), []string{"--format", "csv", "x.yaml"}, streams)
		assert.ErrorContains(t, err, "invalid format")
	})
	t.Run("help", func(t *testing.T) {
		streams, _, _ := testStreams("")
		assert.NoError(t, runRefs(context.Background(), []string{"-h"}, streams))
	})
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
