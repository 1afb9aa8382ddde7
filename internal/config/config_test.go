package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Equal(t, ":8080", cfg.Serve.Addr)
	assert.Equal(t, int64(32<<20), cfg.Serve.MaxUploadMemory)
	assert.Equal(t, 256, cfg.Preview.MaxEdge)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
output:
  dir: /tmp/pdfs
serve:
  addr: ":9000"
fetch:
  timeout: 5s
`), 0o644))
	t.Setenv("IMG2PDF_SERVE_ADDR", ":9100")
	t.Setenv("IMG2PDF_PREVIEW_MAX_EDGE", "64")

	cfg, err := Load(New(path))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/pdfs", cfg.Output.Dir)
	assert.Equal(t, ":9100", cfg.Serve.Addr, "environment beats file")
	assert.Equal(t, 64, cfg.Preview.MaxEdge)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Log:     LogConfig{Level: "info", Format: "text"},
			Serve:   ServeConfig{MaxUploadMemory: 1},
			Preview: PreviewConfig{MaxEdge: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"zero preview edge", func(c *Config) { c.Preview.MaxEdge = 0 }, true},
		{"zero upload memory", func(c *Config) { c.Serve.MaxUploadMemory = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = ParseLevel("")
	assert.Error(t, err)
}
