package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the retrieval pipeline.
type Config struct {
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Search     SearchConfig     `yaml:"search"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// IndexConfig holds workspace discovery and chunking configuration.
type IndexConfig struct {
	Includes      []string `yaml:"includes"`
	Excludes      []string `yaml:"excludes"`
	ChunkSize     int      `yaml:"chunk_size"`
	ChunkOverlap  int      `yaml:"chunk_overlap"`
	MinTextLength int      `yaml:"min_text_length"`
	MaxChunks     int      `yaml:"max_chunks"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string  `yaml:"provider"` // "openai", "ollama", "mock"
	Model     string  `yaml:"model"`
	APIKeyEnv string  `yaml:"api_key_env"` // environment variable holding the credential
	BaseURL   string  `yaml:"base_url"`
	Dimension int     `yaml:"dimension"`
	BatchSize int     `yaml:"batch_size"`
	BatchRate float64 `yaml:"batch_rate"` // embedding batches per second
}

type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// ExtractionConfig holds settings for the display-capable helper process
// that performs pdf/docx extraction.
type ExtractionConfig struct {
	ListenAddr     string `yaml:"listen_addr"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CachePath      string `yaml:"cache_path"` // empty disables the extraction cache
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes:      []string{"**/*.txt", "**/*.md", "**/*.pdf", "**/*.docx", "**/*.html", "**/*.htm"},
			Excludes:      []string{"**/node_modules/**", "**/.git/**", "**/.docrag/**", "**/~$*"},
			ChunkSize:     1000,
			ChunkOverlap:  200,
			MinTextLength: 50,
			MaxChunks:     50000,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
			BatchRate: 2.0,
		},
		Search: SearchConfig{
			TopK: 5,
		},
		Extraction: ExtractionConfig{
			ListenAddr:     "127.0.0.1:7701",
			TimeoutSeconds: 30,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7700",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, merged over defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			mergeWithEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	mergeWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	mergeWithEnv(cfg)
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be in [0, chunk_size), got %d", c.Index.ChunkOverlap)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Extraction.TimeoutSeconds <= 0 {
		return fmt.Errorf("extraction.timeout_seconds must be positive, got %d", c.Extraction.TimeoutSeconds)
	}
	return nil
}

func mergeWithEnv(cfg *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.Embedding.Provider == "ollama" {
		cfg.Embedding.BaseURL = baseURL
	}
	if addr := os.Getenv("DOCRAG_SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if addr := os.Getenv("DOCRAG_EXTRACTOR_ADDR"); addr != "" {
		cfg.Extraction.ListenAddr = addr
	}
}

// CachePath returns the extraction cache location for a workspace when the
// config does not pin one.
func CachePath(dir string) string {
	return filepath.Join(dir, ".docrag", "extractions.db")
}

// EnsureStateDir ensures the .docrag directory exists under a workspace.
func EnsureStateDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".docrag"), 0755)
}
