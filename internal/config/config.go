// Package config provides configuration loading and structs for shiryo.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file. Secrets belong here rather than in YAML.
const (
	EnvOpenAIKey   = "OPENAI_API_KEY"
	EnvDatabaseDSN = "SHIRYO_DATABASE_DSN"
	EnvVectorDSN   = "SHIRYO_VECTOR_DSN"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Storage   StorageConfig   `yaml:"storage"`
	Vector    VectorConfig    `yaml:"vector"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Parser    ParserConfig    `yaml:"parser"`
	Text      TextConfig      `yaml:"text"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
	S3        S3Config        `yaml:"s3"`
}

// IngestionConfig holds chunking settings for one collection.
type IngestionConfig struct {
	CollectionName            string `yaml:"collection_name"`
	ChunkSize                 int    `yaml:"chunk_size"`
	ChunkOverlap              int    `yaml:"chunk_overlap"`
	EnableParentChildChunking bool   `yaml:"enable_parent_child_chunking"`
	ParentChunkSize           int    `yaml:"parent_chunk_size"`
	ParentChunkOverlap        int    `yaml:"parent_chunk_overlap"`
	ChildChunkSize            int    `yaml:"child_chunk_size"`
	ChildChunkOverlap         int    `yaml:"child_chunk_overlap"`
	EnableJapaneseSearch      bool   `yaml:"enable_japanese_search"`
	Splitter                  string `yaml:"splitter"`
	RollbackVectorOnFailure   bool   `yaml:"rollback_vector_on_failure"`
}

// StorageConfig selects the keyword table backend.
type StorageConfig struct {
	// Driver is "sqlite3" or "pgx".
	Driver       string `yaml:"driver"`
	DatabasePath string `yaml:"database_path"`
	DSN          string `yaml:"dsn,omitempty"`
	UploadDir    string `yaml:"upload_dir"`
}

// DataSource returns the DSN passed to the driver.
func (s *StorageConfig) DataSource() string {
	if s.Driver == "pgx" {
		return s.DSN
	}
	return s.DatabasePath
}

// VectorConfig selects the vector index.
type VectorConfig struct {
	// IndexType is "memory" or "pgvector".
	IndexType string `yaml:"index_type"`
	IndexPath string `yaml:"index_path"`
	DSN       string `yaml:"dsn,omitempty"`
	Table     string `yaml:"table"`
}

// EmbeddingConfig selects the embedder.
type EmbeddingConfig struct {
	// Provider is "hash", "openai" or "langchain".
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"-"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// ParserConfig configures document loading.
type ParserConfig struct {
	// ImageSummarizer is "placeholder" or "openai".
	ImageSummarizer string `yaml:"image_summarizer"`
	VisionModel     string `yaml:"vision_model"`
	// LegacyDoc enables .doc files; unset means enabled when wvText is installed.
	LegacyDoc *bool `yaml:"legacy_doc"`
}

// TextConfig configures normalization and tokenization.
type TextConfig struct {
	// Tokenizer is "kagome" or "unicode".
	Tokenizer string `yaml:"tokenizer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Addr returns host:port.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WatchConfig holds drop-folder settings.
type WatchConfig struct {
	Directories    []string `yaml:"directories"`
	Extensions     []string `yaml:"extensions"`
	Recursive      *bool    `yaml:"recursive"`
	DebounceMillis int      `yaml:"debounce_ms"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// S3Config configures s3:// sources. Credentials default to the AWS chain.
type S3Config struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// Load reads and parses the config file at path, loads a .env file next to it if present,
// applies environment overrides, expands paths and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	if err := LoadDotEnv(filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)
	cfg.Vector.IndexPath = expandPath(cfg.Vector.IndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads variables from a .env file without overriding ones already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv copies secrets and DSNs from the environment into cfg.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv(EnvDatabaseDSN); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv(EnvVectorDSN); v != "" {
		cfg.Vector.DSN = v
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
