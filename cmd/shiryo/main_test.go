package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/shiryo/internal/config"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
ingestion:
  chunk_size: 500
storage:
  database_path: "test.db"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))
	chdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	// t.TempDir can sit behind a symlink (macOS /var -> /private/var).
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configCanon, _ := filepath.EvalSymlinks(configPath)
	assert.Equal(t, configCanon, resolvedCanon)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 500, cfg.Ingestion.ChunkSize)
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	cfg, resolved, err := loadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, configPath, resolved)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
}

func TestLoadConfig_missingExplicitPath(t *testing.T) {
	_, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_builtInDefaults(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a default config is installed on this machine")
	}
	chdir(t, t.TempDir())

	cfg, resolved, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.Equal(t, "documents", cfg.Ingestion.CollectionName)
	assert.Equal(t, 1000, cfg.Ingestion.ChunkSize)
	assert.Equal(t, "sqlite3", cfg.Storage.Driver)
}

func TestHandlerConfig(t *testing.T) {
	in := config.IngestionConfig{
		CollectionName:            "manuals",
		ChunkSize:                 300,
		ChunkOverlap:              30,
		EnableParentChildChunking: true,
		ParentChunkSize:           900,
		ParentChunkOverlap:        90,
		ChildChunkSize:            200,
		ChildChunkOverlap:         20,
		EnableJapaneseSearch:      true,
		Splitter:                  "recursive",
		RollbackVectorOnFailure:   true,
	}
	out := handlerConfig(in)
	assert.Equal(t, "manuals", out.CollectionName)
	assert.Equal(t, 300, out.ChunkSize)
	assert.Equal(t, 30, out.ChunkOverlap)
	assert.True(t, out.EnableParentChildChunking)
	assert.Equal(t, 900, out.ParentChunkSize)
	assert.Equal(t, 90, out.ParentChunkOverlap)
	assert.Equal(t, 200, out.ChildChunkSize)
	assert.Equal(t, 20, out.ChildChunkOverlap)
	assert.True(t, out.EnableJapaneseSearch)
	assert.Equal(t, "recursive", out.Splitter)
	assert.True(t, out.RollbackVectorOnFailure)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"collection":"documents","chunks":3}`))
			return
		}
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	var got struct {
		Collection string `json:"collection"`
		Chunks     int    `json:"chunks"`
	}
	require.NoError(t, getJSON(context.Background(), srv.URL+"/ok", &got))
	assert.Equal(t, "documents", got.Collection)
	assert.Equal(t, 3, got.Chunks)

	err := getJSON(context.Background(), srv.URL+"/missing", &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server returned 404")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "delete", "documents", "search", "status", "server", "watch", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
