package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"todo/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestNew_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.New(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, config.BackendREST, cfg.Backend)
	assert.Equal(t, "http://localhost:5000/api/todos", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, filepath.Join(dir, "todo.db"), cfg.DatabasePath())
	assert.Equal(t, 10.0, cfg.RateLimit.RPS)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
}

func TestNew_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ConfigFile), `
backend: sqlite
db_path: /tmp/tasks.db
timeout: 2s
rate_limit:
  rps: 1
  burst: 3
`)

	cfg, err := config.New(dir)
	require.NoError(t, err)

	assert.Equal(t, config.BackendSQLite, cfg.Backend)
	assert.Equal(t, "/tmp/tasks.db", cfg.DatabasePath())
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 1.0, cfg.RateLimit.RPS)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	// Untouched keys keep their defaults.
	assert.Equal(t, ":5000", cfg.Listen)
}

func TestNew_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ConfigFile), "api_url: http://file.example/api/todos\n")
	t.Setenv("TODO_API_URL", "http://env.example/api/todos")
	t.Setenv("TODO_TIMEOUT", "750ms")

	cfg, err := config.New(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://env.example/api/todos", cfg.APIURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
}

func TestNew_RejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ConfigFile), "backend: mongo\n")

	_, err := config.New(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Backend")
}

func TestNew_RejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ConfigFile), "backend: [unclosed\n")

	_, err := config.New(dir)
	require.Error(t, err)
}

func TestValidate_RESTNeedsURL(t *testing.T) {
	cfg := config.Defaults(t.TempDir())
	cfg.APIURL = ""
	require.Error(t, cfg.Validate())

	cfg.Backend = config.BackendMemory
	require.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.LoadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	writeFile(t, path, "TODO_BACKEND=memory\n")
	t.Setenv("TODO_BACKEND", "")
	require.NoError(t, os.Unsetenv("TODO_BACKEND"))

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "memory", os.Getenv("TODO_BACKEND"))

	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Backend)
}

func TestYAML_RoundTripsThroughConfigFile(t *testing.T) {
	cfg := config.Defaults(t.TempDir())
	cfg.Timeout = 3 * time.Second

	data, err := cfg.YAML()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "3s", doc["timeout"])
	assert.Equal(t, "rest", doc["backend"])

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ConfigFile), string(data))
	loaded, err := config.New(dir)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, loaded.Timeout)
	assert.Equal(t, cfg.APIURL, loaded.APIURL)
}

func TestOAuthPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults(dir)
	assert.False(t, cfg.HasOAuthClient())
	assert.False(t, cfg.HasToken())

	writeFile(t, cfg.OAuthClientPath(), "{}")
	writeFile(t, cfg.TokenPath(), "{}")
	assert.True(t, cfg.HasOAuthClient())
	assert.True(t, cfg.HasToken())
}
