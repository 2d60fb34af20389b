package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/erraggy/refresolver/internal/testutil"
	"github.com/erraggy/refresolver/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petYAML = `paths:
  /pets:
    get:
      responses:
        "200":
          $ref: '#/components/responses/Pets'
components:
  responses:
    Pets:
      description: A list of pets
`

func testEngine(t *testing.T, allowPrivate bool) *engine {
	t.Helper()
	e, err := newEngine(&serverConfig{
		AllowHTTP:       true,
		AllowPrivateIPs: allowPrivate,
		HTTPTimeout:     5 * time.Second,
		MaxFileSize:     1 << 20,
		MaxURIDepth:     10,
		CacheTTL:        time.Minute,
	})
	require.NoError(t, err)
	return e
}

func TestDocInput_ResolveFile(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]any{
		"root.yaml":   map[string]any{"pet": map[string]any{"$ref": "common.yaml#/Pet"}},
		"common.yaml": map[string]any{"Pet": map[string]any{"type": "object"}},
	})

	input := docInput{File: filepath.Join(dir, "root.yaml")}
	res, err := input.resolve(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"pet": map[string]any{"type": "object"}}, res.Result)
}

func TestDocInput_ResolveContent(t *testing.T) {
	input := docInput{Content: petYAML}
	res, err := input.resolve(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, "/components/responses/Pets", res.RefMap["/paths/~1pets/get/responses/200"])
}

func TestDocInput_ContentWithBase(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]any{
		"common.yaml": map[string]any{"Pet": map[string]any{"type": "object"}},
	})

	input := docInput{
		Content: `{"pet": {"$ref": "common.yaml#/Pet"}}`,
		Base:    filepath.ToSlash(filepath.Join(dir, "root.json")),
	}
	res, err := input.resolve(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"pet": map[string]any{"type": "object"}}, res.Result)
}

func TestDocInput_NoneProvided(t *testing.T) {
	input := docInput{}
	_, err := input.resolve(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of file, url, or content must be provided")
}

func TestDocInput_MultipleProvided(t *testing.T) {
	input := docInput{File: "foo.yaml", Content: "bar"}
	_, err := input.resolve(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of file, url, or content must be provided")
}

func TestDocInput_FileNotFound(t *testing.T) {
	input := docInput{File: "/nonexistent/path.yaml"}
	_, err := input.resolve(context.Background())
	assert.Error(t, err)
}

func TestDocInput_InlineSizeLimit(t *testing.T) {
	old := cfg.MaxInlineSize
	cfg.MaxInlineSize = 16
	t.Cleanup(func() { cfg.MaxInlineSize = old })

	input := docInput{Content: strings.Repeat("a", 17)}
	_, err := input.resolve(context.Background())
	assert.ErrorContains(t, err, "exceeds maximum 16 bytes")
}

func TestDocInput_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(petYAML))
	}))
	defer srv.Close()

	t.Run("private address blocked", func(t *testing.T) {
		_, _, err := docInput{URL: srv.URL + "/pets.yaml"}.load(context.Background(), testEngine(t, false))
		assert.ErrorContains(t, err, "blocked request")
	})

	t.Run("private address allowed", func(t *testing.T) {
		doc, base, err := docInput{URL: srv.URL + "/pets.yaml#/paths"}.load(context.Background(), testEngine(t, true))
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/pets.yaml", base)
		assert.Contains(t, doc, "components")
	})

	t.Run("non-http scheme", func(t *testing.T) {
		_, _, err := docInput{URL: "ftp://example.com/x.yaml"}.load(context.Background(), testEngine(t, true))
		assert.ErrorContains(t, err, "http or https")
	})
}

func TestDocInput_URLCannotReadLocalFiles(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]any{
		"secret.yaml": map[string]any{"token": "s3cr3t"},
	})
	secret := filepath.ToSlash(filepath.Join(dir, "secret.yaml"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte("leak:\n  $ref: 'file://" + secret + "#/token'\n"))
	}))
	defer srv.Close()

	e := testEngine(t, true)
	doc, base, err := docInput{URL: srv.URL + "/api.yaml"}.load(context.Background(), e)
	require.NoError(t, err)

	res, err := e.resolver.Resolve(context.Background(), doc, resolver.WithBaseURI(base))
	require.NoError(t, err)

	issues := toIssues(res.Errors)
	require.Len(t, issues, 1)
	assert.Equal(t, "RESOLVE_URI", issues[0].Code)
	assert.Contains(t, issues[0].Message, "refusing to read local file")
	assert.NotContains(t, fmt.Sprint(res.Result), "s3cr3t")
}
