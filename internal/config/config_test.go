package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
ingestion:
  collection_name: manuals
  chunk_size: 400
  chunk_overlap: 50
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr() = %s", cfg.Server.Addr())
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Ingestion.CollectionName != "manuals" || cfg.Ingestion.ChunkSize != 400 || cfg.Ingestion.ChunkOverlap != 50 {
		t.Errorf("unexpected ingestion config: %+v", cfg.Ingestion)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_explicitZeroOverlapKept(t *testing.T) {
	path := writeConfig(t, `
ingestion:
  enable_parent_child_chunking: true
  parent_chunk_size: 800
  parent_chunk_overlap: 0
  child_chunk_size: 200
  child_chunk_overlap: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	in := cfg.Ingestion
	if in.ParentChunkSize != 800 || in.ParentChunkOverlap != 0 || in.ChildChunkSize != 200 || in.ChildChunkOverlap != 0 {
		t.Errorf("parent/child settings changed by defaults: %+v", in)
	}
	if in.ChunkSize != 1000 || in.ChunkOverlap != 200 {
		t.Errorf("standard chunk defaults: got %d/%d", in.ChunkSize, in.ChunkOverlap)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/chunks.db"
vector:
  index_path: "./data/indices/vectors.bin"
watch:
  directories: ["./dev/inbox"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "db", "chunks.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "indices", "vectors.bin"); cfg.Vector.IndexPath != want {
		t.Errorf("index_path = %s, want %s", cfg.Vector.IndexPath, want)
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	if want := filepath.Join(dir, "dev", "inbox"); cfg.Watch.Directories[0] != want {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], want)
	}
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv(EnvOpenAIKey, "sk-test")
	t.Setenv(EnvDatabaseDSN, "postgres://localhost/shiryo")
	path := writeConfig(t, `
storage:
  driver: pgx
embedding:
  provider: openai
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("api key from env: got %q", cfg.Embedding.APIKey)
	}
	if cfg.Storage.DataSource() != "postgres://localhost/shiryo" {
		t.Errorf("DataSource() = %q", cfg.Storage.DataSource())
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("openai dimensions default: got %d", cfg.Embedding.Dimensions)
	}
}

func TestLoad_dotEnvNextToConfig(t *testing.T) {
	path := writeConfig(t, "vector:\n  index_type: pgvector\n")
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := os.WriteFile(envPath, []byte(EnvVectorDSN+"=postgres://db/vectors\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides; make sure the variable starts unset and is cleaned up.
	t.Setenv(EnvVectorDSN, "")
	os.Unsetenv(EnvVectorDSN)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vector.DSN != "postgres://db/vectors" {
		t.Errorf("vector dsn from .env: got %q", cfg.Vector.DSN)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"overlap", "ingestion:\n  chunk_size: 100\n  chunk_overlap: 100\n", "chunk_overlap"},
		{"splitter", "ingestion:\n  splitter: sentences\n", "splitter"},
		{"driver", "storage:\n  driver: mysql\n", "storage.driver"},
		{"pgx without dsn", "storage:\n  driver: pgx\n", EnvDatabaseDSN},
		{"index type", "vector:\n  index_type: faiss\n", "vector.index_type"},
		{"openai without key", "embedding:\n  provider: openai\n", EnvOpenAIKey},
	}
	t.Setenv(EnvOpenAIKey, "")
	t.Setenv(EnvDatabaseDSN, "")
	t.Setenv(EnvVectorDSN, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	in := cfg.Ingestion
	if in.CollectionName != "documents" || in.ChunkSize != 1000 || in.ChunkOverlap != 200 {
		t.Errorf("ingestion defaults: %+v", in)
	}
	if in.ParentChunkSize != 2000 || in.ParentChunkOverlap != 200 || in.ChildChunkSize != 400 || in.ChildChunkOverlap != 50 {
		t.Errorf("parent/child defaults: %+v", in)
	}
	if in.Splitter != "window" {
		t.Errorf("splitter default: %s", in.Splitter)
	}
	if cfg.Storage.Driver != "sqlite3" || cfg.Vector.IndexType != "memory" || cfg.Embedding.Provider != "hash" {
		t.Errorf("backend defaults: %s %s %s", cfg.Storage.Driver, cfg.Vector.IndexType, cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("hash dimensions default: got %d", cfg.Embedding.Dimensions)
	}
	if len(cfg.Watch.Extensions) != 9 || cfg.Watch.Extensions[0] != ".txt" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/docs"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:    ServerConfig{Host: "localhost", Port: 9090},
		Storage:   StorageConfig{DatabasePath: "/tmp/db"},
		Embedding: EmbeddingConfig{APIKey: "secret"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("api key must not be written to the config file")
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
