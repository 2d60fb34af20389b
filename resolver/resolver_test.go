package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/erraggy/refresolver/cache"
	"github.com/erraggy/refresolver/document"
	"github.com/erraggy/refresolver/internal/testutil"
	"github.com/erraggy/refresolver/referrors"
	"github.com/erraggy/refresolver/scheme"
	"github.com/erraggy/refresolver/uri"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(s string) map[string]any {
	return map[string]any{"$ref": s}
}

func memResolver(t *testing.T, docs map[string]any) (*Resolver, *testutil.MemResolver) {
	t.Helper()
	mem := testutil.NewMemResolver(docs)
	reg := scheme.NewRegistry()
	reg.Register("mem", mem)
	r, err := New(WithResolvers(reg))
	require.NoError(t, err)
	return r, mem
}

func errorCodes(res *Result) []referrors.Code {
	codes := make([]referrors.Code, 0, len(res.Errors))
	for _, e := range res.Errors {
		codes = append(codes, e.Code)
	}
	return codes
}

func TestResolve_Internal(t *testing.T) {
	doc := map[string]any{
		"a": ref("#/b"),
		"b": map[string]any{"c": 1},
	}

	res, err := Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"c": 1},
		"b": map[string]any{"c": 1},
	}, res.Result)
	assert.Equal(t, map[string]string{"/a": "/b"}, res.RefMap)
}

func TestResolve_NestedInternal(t *testing.T) {
	doc := map[string]any{
		"a": ref("#/b"),
		"b": map[string]any{"x": ref("#/c")},
		"c": 1,
	}

	res, err := Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"x": 1},
		"b": map[string]any{"x": 1},
		"c": 1,
	}, res.Result)
	assert.Equal(t, map[string]string{"/a": "/b", "/b/x": "/c"}, res.RefMap)
}

func TestResolve_PetStore(t *testing.T) {
	res, err := Resolve(context.Background(), testutil.NewPetStoreDocument())
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	got, ok := document.Get(res.Result, []string{"paths", "/pets", "get", "responses", "200", "schema", "items", "properties", "tag"})
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "string"}, got)
}

func TestResolve_TargetBelowReference(t *testing.T) {
	doc := map[string]any{
		"a": ref("#/b/x"),
		"b": ref("#/c"),
		"c": map[string]any{"x": "found"},
	}

	res, err := Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	got, _ := document.Get(res.Result, []string{"a"})
	assert.Equal(t, "found", got)
}

func TestResolve_PointerMissing(t *testing.T) {
	doc := map[string]any{"a": ref("#/b")}

	res, err := Resolve(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	e := res.Errors[0]
	assert.Equal(t, referrors.CodePointerMissing, e.Code)
	assert.Equal(t, []string{"b"}, e.Path)
	assert.Contains(t, e.Message, "/a")
	assert.True(t, errors.Is(e, referrors.ErrPointerMissing))

	assert.Equal(t, doc, res.Result)
	assert.Equal(t, "/b", res.RefMap["/a"])
}

func TestResolve_Cycles(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
	}{
		{
			name: "self reference",
			doc:  map[string]any{"a": map[string]any{"b": ref("#/a")}},
		},
		{
			name: "root reference",
			doc:  map[string]any{"a": ref("#")},
		},
		{
			name: "root reference with slash",
			doc:  map[string]any{"a": map[string]any{"$ref": "#/"}},
		},
		{
			name: "mutual references",
			doc:  map[string]any{"a": ref("#/b"), "b": ref("#/a")},
		},
		{
			name: "three step loop",
			doc:  map[string]any{"a": ref("#/b"), "b": ref("#/c"), "c": ref("#/a")},
		},
		{
			name: "loop through a container",
			doc: map[string]any{
				"a": map[string]any{"next": ref("#/b")},
				"b": map[string]any{"next": ref("#/a")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(context.Background(), tt.doc)
			require.NoError(t, err)
			assert.Empty(t, res.Errors)
			assert.NotNil(t, res.Result)
		})
	}
}

func TestResolve_RootSelfReference(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"$ref": "#/"},
		"b": ref("#"),
	}

	res, err := Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, doc, res.Result)
}

func TestResolve_Idempotent(t *testing.T) {
	doc := map[string]any{
		"a": []any{1, "two", map[string]any{"three": 3.0}},
		"b": map[string]any{"nested": map[string]any{"ok": true}},
	}

	res, err := Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Empty(t, res.RefMap)
	if diff := cmp.Diff(doc, res.Result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	again, err := Resolve(context.Background(), res.Result)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(res.Result, again.Result))
}

func TestResolve_DoesNotModifyInput(t *testing.T) {
	doc := testutil.NewPetStoreDocument()
	want := testutil.NewPetStoreDocument()

	_, err := Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(want, doc))
}

func TestResolve_JSONPointer(t *testing.T) {
	doc := map[string]any{
		"a": ref("#/missing"),
		"b": ref("#/c"),
		"c": 2,
	}

	t.Run("subtree", func(t *testing.T) {
		res, err := Resolve(context.Background(), doc, WithJSONPointer("/b"))
		require.NoError(t, err)
		assert.Empty(t, res.Errors)
		assert.Equal(t, 2, res.Result)
	})

	t.Run("fragment form", func(t *testing.T) {
		res, err := Resolve(context.Background(), doc, WithJSONPointer("#/c"))
		require.NoError(t, err)
		assert.Empty(t, res.Errors)
		assert.Equal(t, 2, res.Result)
	})

	t.Run("missing", func(t *testing.T) {
		res, err := Resolve(context.Background(), doc, WithJSONPointer("/nope"))
		require.NoError(t, err)
		assert.Equal(t, []referrors.Code{referrors.CodePointerMissing}, errorCodes(res))
		assert.Nil(t, res.Result)
	})

	t.Run("malformed", func(t *testing.T) {
		res, err := Resolve(context.Background(), doc, WithJSONPointer("b"))
		require.NoError(t, err)
		assert.Equal(t, []referrors.Code{referrors.CodeParsePointer}, errorCodes(res))
	})
}

func TestResolve_MalformedFragment(t *testing.T) {
	doc := map[string]any{"a": ref("#b")}

	res, err := Resolve(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, referrors.CodeParsePointer, res.Errors[0].Code)
	assert.Equal(t, []string{"a"}, res.Errors[0].Path)
	assert.Equal(t, doc, res.Result)
}

func TestResolve_DereferenceInlineDisabled(t *testing.T) {
	doc := map[string]any{"a": ref("#/b"), "b": 1}

	res, err := Resolve(context.Background(), doc, WithDereferenceInline(false))
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, doc, res.Result)
}

func TestResolve_External(t *testing.T) {
	r, mem := memResolver(t, map[string]any{
		"mem://specs/pet.yaml": map[string]any{
			"Pet": map[string]any{"type": "object", "properties": map[string]any{"tag": ref("#/Tag")}},
			"Tag": map[string]any{"type": "string"},
		},
	})
	doc := map[string]any{
		"a": ref("mem://specs/pet.yaml#/Pet"),
		"b": ref("mem://specs/pet.yaml#/Tag"),
	}

	res, err := r.Resolve(context.Background(), doc)
	require.NoError(t, err)

	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"type": "object", "properties": map[string]any{"tag": map[string]any{"type": "string"}}},
		"b": map[string]any{"type": "string"},
	}, res.Result)
	assert.Equal(t, "mem://specs/pet.yaml#/Pet", res.RefMap["/a"])
	assert.Equal(t, "mem://specs/pet.yaml#/Tag", res.RefMap["/b"])
	assert.Equal(t, 1, mem.Calls("mem://specs/pet.yaml"))

	t.Run("graph", func(t *testing.T) {
		deps, err := res.Graph.DirectDependenciesOf("root")
		require.NoError(t, err)
		assert.Equal(t, []string{"mem://specs/pet.yaml"}, deps)

		data, err := res.Graph.NodeData("root")
		require.NoError(t, err)
		assert.Equal(t, "mem://specs/pet.yaml#/Pet", data.RefMap["/a"])
		assert.Equal(t, res.Result, data.Data)
	})

	t.Run("cached across calls", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, 1, mem.Calls("mem://specs/pet.yaml"))

		stats := r.Cache().(*cache.Cache).Stats()
		assert.Positive(t, stats.Hits)
	})

	t.Run("purge", func(t *testing.T) {
		r.Cache().Purge()
		_, err := r.Resolve(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, 2, mem.Calls("mem://specs/pet.yaml"))
	})
}

func TestResolve_ExternalPointerMissing(t *testing.T) {
	r, _ := memResolver(t, map[string]any{
		"mem://h/x": map[string]any{"A": 1},
	})
	doc := map[string]any{"a": ref("mem://h/x#/B")}

	res, err := r.Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []referrors.Code{referrors.CodePointerMissing}, errorCodes(res))
	assert.Equal(t, "mem://h/x", res.Errors[0].URI)
	assert.Equal(t, doc, res.Result)
}

func TestResolve_CrossDocumentCycle(t *testing.T) {
	r, mem := memResolver(t, map[string]any{
		"mem://h/x": map[string]any{"next": ref("mem://h/y")},
		"mem://h/y": map[string]any{"next": ref("mem://h/x")},
	})
	doc := map[string]any{"a": ref("mem://h/x")}

	res, err := r.Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"next": map[string]any{"next": ref("mem://h/x")}},
	}, res.Result)
	assert.Equal(t, 1, mem.Calls("mem://h/x"))
	assert.Equal(t, 1, mem.Calls("mem://h/y"))
}

func TestResolve_BackReferenceToRoot(t *testing.T) {
	r, mem := memResolver(t, map[string]any{
		"mem://h/common": map[string]any{"Pet": map[string]any{"id": ref("mem://h/root#/ID")}},
	})
	doc := map[string]any{
		"ID":  map[string]any{"type": "integer"},
		"pet": ref("mem://h/common#/Pet"),
	}

	res, err := r.Resolve(context.Background(), doc, WithBaseURI("mem://h/root"))
	require.NoError(t, err)

	require.Empty(t, res.Errors)
	got, _ := document.Get(res.Result, []string{"pet", "id"})
	assert.Equal(t, map[string]any{"type": "integer"}, got)
	assert.Zero(t, mem.Calls("mem://h/root"))
}

func TestResolve_RootDocumentIsPerCall(t *testing.T) {
	r, mem := memResolver(t, map[string]any{
		"mem://h/root": map[string]any{"ID": "fetched"},
	})

	first, err := r.Resolve(context.Background(), map[string]any{"ID": "inline"}, WithBaseURI("mem://h/root"))
	require.NoError(t, err)
	require.Empty(t, first.Errors)

	second, err := r.Resolve(context.Background(), map[string]any{"a": ref("mem://h/root#/ID")})
	require.NoError(t, err)

	require.Empty(t, second.Errors)
	assert.Equal(t, map[string]any{"a": "fetched"}, second.Result)
	assert.Equal(t, 1, mem.Calls("mem://h/root"))
}

func TestResolve_MaxURIDepth(t *testing.T) {
	mem := testutil.NewMemResolver(nil)
	n := 0
	var mu sync.Mutex
	mem.Gen = func(*uri.URI) (any, bool) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return map[string]any{"next": ref(fmt.Sprintf("mem://h/%d", n))}, true
	}
	reg := scheme.NewRegistry()
	reg.Register("mem", mem)

	r, err := New(WithResolvers(reg), WithMaxURIDepth(3))
	require.NoError(t, err)

	res, err := r.Resolve(context.Background(), map[string]any{"a": ref("mem://h/start")})
	require.NoError(t, err)

	require.Equal(t, []referrors.Code{referrors.CodeResolveURI}, errorCodes(res))
	assert.Contains(t, res.Errors[0].Message, "max uri depth")
	assert.Len(t, res.Errors[0].URIStack, 3)
	assert.Equal(t, 4, mem.TotalCalls())
}

func TestResolve_UnknownScheme(t *testing.T) {
	doc := map[string]any{"a": ref("foo://x/y#/z")}

	t.Run("no file resolver", func(t *testing.T) {
		r, _ := memResolver(t, nil)
		res, err := r.Resolve(context.Background(), doc)
		require.NoError(t, err)

		require.Len(t, res.Errors, 1)
		e := res.Errors[0]
		assert.Equal(t, referrors.CodeResolveURI, e.Code)
		assert.Contains(t, e.Message, "no resolver defined for scheme 'foo'")
		assert.ErrorIs(t, e, scheme.ErrUnknownScheme)
		assert.Equal(t, doc, res.Result)
		assert.Equal(t, "foo://x/y#/z", res.RefMap["/a"])
	})

	t.Run("read as a file", func(t *testing.T) {
		files := testutil.NewMemResolver(map[string]any{
			"foo://x/y": map[string]any{"z": "found"},
		})
		reg := scheme.NewRegistry()
		reg.Register(uri.SchemeFile, files)
		r, err := New(WithResolvers(reg))
		require.NoError(t, err)

		res, err := r.Resolve(context.Background(), doc)
		require.NoError(t, err)

		require.Empty(t, res.Errors)
		assert.Equal(t, map[string]any{"a": "found"}, res.Result)
		assert.Equal(t, 1, files.Calls("foo://x/y"))
	})
}

func TestResolve_RelativeWithoutBase(t *testing.T) {
	doc := map[string]any{"a": ref("common.yaml#/X")}

	res, err := Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []referrors.Code{referrors.CodeResolveURI}, errorCodes(res))
	assert.Equal(t, doc, res.Result)
}

func TestResolve_DereferenceRemoteDisabled(t *testing.T) {
	r, mem := memResolver(t, map[string]any{"mem://h/x": map[string]any{"A": 1}})
	doc := map[string]any{"a": ref("mem://h/x#/A")}

	res, err := r.Resolve(context.Background(), doc, WithDereferenceRemote(false))
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, doc, res.Result)
	assert.Zero(t, mem.TotalCalls())
}

func TestResolve_Files(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]any{
		"root.json": map[string]any{
			"pet":  ref("./schemas/pet.yaml#/Pet"),
			"same": ref("root.json#/local"),
			"local": map[string]any{
				"v": 1,
			},
		},
		"schemas/pet.yaml": map[string]any{
			"Pet": map[string]any{"name": ref("common.yaml#/Name")},
		},
		"schemas/common.yaml": map[string]any{
			"Name": map[string]any{"type": "string"},
		},
	})
	root := filepath.ToSlash(filepath.Join(dir, "root.json"))

	r, err := New()
	require.NoError(t, err)
	res, err := r.ResolveURI(context.Background(), root)
	require.NoError(t, err)

	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{
		"pet":   map[string]any{"name": map[string]any{"type": "string"}},
		"same":  map[string]any{"v": 1.0},
		"local": map[string]any{"v": 1.0},
	}, res.Result)
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "schemas", "pet.yaml"))+"#/Pet", res.RefMap["/pet"])
	assert.Equal(t, "/local", res.RefMap["/same"])

	t.Run("fragment selects subtree", func(t *testing.T) {
		res, err := r.ResolveURI(context.Background(), root+"#/pet")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": map[string]any{"type": "string"}}, res.Result)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := r.ResolveURI(context.Background(), filepath.ToSlash(filepath.Join(dir, "nope.json")))
		assert.ErrorIs(t, err, referrors.ErrReference)
	})
}

func TestResolve_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/api/root.yaml":
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write([]byte("pet:\n  $ref: 'models/pet.json#/Pet'\n"))
		case "/api/models/pet.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Pet": {"type": "object"}}`))
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	r, err := New()
	require.NoError(t, err)

	res, err := r.ResolveURI(context.Background(), srv.URL+"/api/root.yaml")
	require.NoError(t, err)

	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"pet": map[string]any{"type": "object"}}, res.Result)
	assert.Equal(t, srv.URL+"/api/models/pet.json#/Pet", res.RefMap["/pet"])

	t.Run("not found", func(t *testing.T) {
		res, err := r.Resolve(context.Background(), map[string]any{"a": ref("missing.json")},
			WithBaseURI(srv.URL+"/api/root.yaml"))
		require.NoError(t, err)
		require.Equal(t, []referrors.Code{referrors.CodeResolveURI}, errorCodes(res))
		assert.Contains(t, res.Errors[0].Message, "404")
	})
}

func TestResolve_RemoteDocumentCannotReadFiles(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]any{
		"secret.yaml": map[string]any{"token": "s3cr3t"},
	})
	secret := filepath.ToSlash(filepath.Join(dir, "secret.yaml"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/api/root.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintf(w, `{"byURI": {"$ref": "file://%[1]s#/token"}, "byPath": {"$ref": "%[1]s#/token"}, "pet": {"$ref": "pet.json"}}`, secret)
		case "/api/pet.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"type": "object"}`))
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	r, err := New()
	require.NoError(t, err)

	res, err := r.ResolveURI(context.Background(), srv.URL+"/api/root.json")
	require.NoError(t, err)

	require.Equal(t, []referrors.Code{referrors.CodeResolveURI, referrors.CodeResolveURI}, errorCodes(res))
	for _, e := range res.Errors {
		assert.Contains(t, e.Message, "refusing to read local file")
	}
	assert.Equal(t, map[string]any{
		"byURI":  ref("file://" + secret + "#/token"),
		"byPath": ref(secret + "#/token"),
		"pet":    map[string]any{"type": "object"},
	}, res.Result)
	assert.NotContains(t, fmt.Sprint(res.Result), "s3cr3t")
}

func TestResolve_ConcurrentCalls(t *testing.T) {
	r, mem := memResolver(t, map[string]any{
		"mem://h/x": map[string]any{"A": 1},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Resolve(context.Background(), map[string]any{
				"a": ref("mem://h/x#/A"),
				"b": ref("mem://h/x#/A"),
			})
			assert.NoError(t, err)
			assert.Empty(t, res.Errors)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, mem.Calls("mem://h/x"))
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithMaxURIDepth(0))
	assert.ErrorIs(t, err, referrors.ErrConfig)

	r, err := New()
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), map[string]any{}, WithBaseURI("http://[::1"))
	assert.ErrorIs(t, err, referrors.ErrConfig)
}
