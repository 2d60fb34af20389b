package mcpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// clearRefresolverEnv clears all REFRESOLVER_* env vars to isolate tests from the ambient environment.
func clearRefresolverEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REFRESOLVER_ALLOW_HTTP", "REFRESOLVER_ALLOW_PRIVATE_IPS",
		"REFRESOLVER_HTTP_TIMEOUT", "REFRESOLVER_MAX_FILE_SIZE",
		"REFRESOLVER_MAX_URI_DEPTH", "REFRESOLVER_CACHE_TTL",
		"REFRESOLVER_MAX_INLINE_SIZE", "REFRESOLVER_LIST_LIMIT",
		"REFRESOLVER_MAX_LIMIT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearRefresolverEnv(t)

	c := loadConfig()

	assert.True(t, c.AllowHTTP)
	assert.False(t, c.AllowPrivateIPs)
	assert.Equal(t, 30*time.Second, c.HTTPTimeout)
	assert.Equal(t, int64(10*1024*1024), c.MaxFileSize)
	assert.Equal(t, 100, c.MaxURIDepth)
	assert.Equal(t, 5*time.Minute, c.CacheTTL)
	assert.Equal(t, int64(10*1024*1024), c.MaxInlineSize)
	assert.Equal(t, 100, c.ListLimit)
	assert.Equal(t, 1000, c.MaxLimit)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearRefresolverEnv(t)
	t.Setenv("REFRESOLVER_ALLOW_HTTP", "false")
	t.Setenv("REFRESOLVER_ALLOW_PRIVATE_IPS", "true")
	t.Setenv("REFRESOLVER_HTTP_TIMEOUT", "5s")
	t.Setenv("REFRESOLVER_MAX_FILE_SIZE", "2048")
	t.Setenv("REFRESOLVER_MAX_URI_DEPTH", "10")
	t.Setenv("REFRESOLVER_CACHE_TTL", "1m")
	t.Setenv("REFRESOLVER_MAX_INLINE_SIZE", "1024")
	t.Setenv("REFRESOLVER_LIST_LIMIT", "20")
	t.Setenv("REFRESOLVER_MAX_LIMIT", "50")

	c := loadConfig()

	assert.False(t, c.AllowHTTP)
	assert.True(t, c.AllowPrivateIPs)
	assert.Equal(t, 5*time.Second, c.HTTPTimeout)
	assert.Equal(t, int64(2048), c.MaxFileSize)
	assert.Equal(t, 10, c.MaxURIDepth)
	assert.Equal(t, time.Minute, c.CacheTTL)
	assert.Equal(t, int64(1024), c.MaxInlineSize)
	assert.Equal(t, 20, c.ListLimit)
	assert.Equal(t, 50, c.MaxLimit)
}

func TestLoadConfig_InvalidValues_UseDefaults(t *testing.T) {
	clearRefresolverEnv(t)
	t.Setenv("REFRESOLVER_ALLOW_HTTP", "not-a-bool")
	t.Setenv("REFRESOLVER_HTTP_TIMEOUT", "soon")
	t.Setenv("REFRESOLVER_MAX_FILE_SIZE", "-1")
	t.Setenv("REFRESOLVER_MAX_URI_DEPTH", "0")
	t.Setenv("REFRESOLVER_CACHE_TTL", "-1m")

	c := loadConfig()

	assert.True(t, c.AllowHTTP)
	assert.Equal(t, 30*time.Second, c.HTTPTimeout)
	assert.Equal(t, int64(10*1024*1024), c.MaxFileSize)
	assert.Equal(t, 100, c.MaxURIDepth)
	assert.Equal(t, 5*time.Minute, c.CacheTTL)
}
