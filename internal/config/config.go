package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"evolve/internal/domain"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// AnthropicConfig holds configuration for the Anthropic Messages client.
type AnthropicConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GeneratorConfig selects and configures the text generator.
type GeneratorConfig struct {
	Type      string           `yaml:"type"`
	Anthropic *AnthropicConfig `yaml:"anthropic,omitempty"`
}

// ChunkerConfig configures how documents are split into token windows.
type ChunkerConfig struct {
	Encoding string `yaml:"encoding"`
	// Model, when set, selects the encoding that model uses instead of Encoding.
	Model     string `yaml:"model,omitempty"`
	ChunkSize int    `yaml:"chunk_size"`
	Overlap   int    `yaml:"overlap"`
}

// TaggingConfig configures the AI tagging pass.
type TaggingConfig struct {
	AIPrefixChars int `yaml:"ai_prefix_chars"`
	AIMaxTokens   int `yaml:"ai_max_tokens"`
}

// RetrievalConfig configures query-time behaviour.
type RetrievalConfig struct {
	TopK                int    `yaml:"top_k"`
	DefaultProgramLevel string `yaml:"default_program_level"`
	AnswerMaxTokens     int    `yaml:"answer_max_tokens"`
}

// UploadConfig configures the per-document pipeline.
type UploadConfig struct {
	Workers int `yaml:"workers"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
	SQLite   *SQLiteConfig   `yaml:"sqlite,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// PineconeConfig contains connection details for a Pinecone index.
type PineconeConfig struct {
	Host        string `yaml:"host"`
	APIKeyEnv   string `yaml:"api_key_env"`
	IndexName   string `yaml:"index_name"`
	Namespace   string `yaml:"namespace"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// SQLiteConfig locates the local vector database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	TimeoutSecs    int      `yaml:"timeout_secs"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// IngestConfig configures batch ingestion.
type IngestConfig struct {
	Pattern           string `yaml:"pattern"`
	DelayMillis       int    `yaml:"delay_millis"`
	UploadTimeoutSecs int    `yaml:"upload_timeout_secs"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Tagging     TaggingConfig     `yaml:"tagging"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Upload      UploadConfig      `yaml:"upload"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Server      ServerConfig      `yaml:"server"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			if err := applyEnvOverrides(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data, fills defaults and applies env overrides.
func Parse(data []byte) (*AppConfig, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyConfigDefaults(cfg)
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/evolve/config.yaml.
// If neither exists, it writes defaults to ~/.config/evolve/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	if c.Chunker.ChunkSize <= 0 {
		return domain.NewError(domain.KindInvalidConfig, "chunk_size must be positive", nil).
			WithDetail("chunk_size", c.Chunker.ChunkSize)
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.ChunkSize {
		return domain.NewError(domain.KindInvalidConfig, "overlap must be in [0, chunk_size)", nil).
			WithDetail("chunk_size", c.Chunker.ChunkSize).
			WithDetail("overlap", c.Chunker.Overlap)
	}
	if c.Embedder.Dimension <= 0 {
		return domain.NewError(domain.KindInvalidConfig, "embedder dimension must be positive", nil)
	}
	if c.Retrieval.TopK <= 0 {
		return domain.NewError(domain.KindInvalidConfig, "top_k must be positive", nil)
	}
	if !domain.IsProgramLevel(c.Retrieval.DefaultProgramLevel) {
		return domain.NewError(domain.KindInvalidConfig, "unknown default program level", nil).
			WithDetail("program_level", c.Retrieval.DefaultProgramLevel)
	}
	return nil
}

// IngestDelay is the pause between files of a batch run.
func (c *AppConfig) IngestDelay() time.Duration {
	return time.Duration(c.Ingest.DelayMillis) * time.Millisecond
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "evolve", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "openai", Dimension: 1536},
		Generator:   GeneratorConfig{Type: "anthropic"},
		Chunker:     ChunkerConfig{Encoding: "cl100k_base", ChunkSize: 1000, Overlap: 200},
		Tagging:     TaggingConfig{AIPrefixChars: 2000, AIMaxTokens: 500},
		Retrieval:   RetrievalConfig{TopK: 5, DefaultProgramLevel: domain.LevelBeginner, AnswerMaxTokens: 2000},
		Upload:      UploadConfig{Workers: 1},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Server:      ServerConfig{Addr: ":8000", TimeoutSecs: 120, AllowedOrigins: []string{"*"}},
		Ingest:      IngestConfig{Pattern: "*.md", DelayMillis: 500, UploadTimeoutSecs: 120},
		Log:         LogConfig{Level: "info", Format: "console"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 1536
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-large"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Generator.Type == "anthropic" {
		if cfg.Generator.Anthropic == nil {
			cfg.Generator.Anthropic = &AnthropicConfig{}
		}
		if cfg.Generator.Anthropic.BaseURL == "" {
			cfg.Generator.Anthropic.BaseURL = "https://api.anthropic.com/v1"
		}
		if cfg.Generator.Anthropic.APIKeyEnv == "" {
			cfg.Generator.Anthropic.APIKeyEnv = "ANTHROPIC_API_KEY"
		}
		if cfg.Generator.Anthropic.Model == "" {
			cfg.Generator.Anthropic.Model = "claude-sonnet-4-5-20250929"
		}
		if cfg.Generator.Anthropic.TimeoutSecs == 0 {
			cfg.Generator.Anthropic.TimeoutSecs = 60
		}
	}
	if cfg.Chunker.Encoding == "" {
		cfg.Chunker.Encoding = "cl100k_base"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Tagging.AIPrefixChars == 0 {
		cfg.Tagging.AIPrefixChars = 2000
	}
	if cfg.Tagging.AIMaxTokens == 0 {
		cfg.Tagging.AIMaxTokens = 500
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.DefaultProgramLevel == "" {
		cfg.Retrieval.DefaultProgramLevel = domain.LevelBeginner
	}
	if cfg.Retrieval.AnswerMaxTokens == 0 {
		cfg.Retrieval.AnswerMaxTokens = 2000
	}
	if cfg.Upload.Workers <= 0 {
		cfg.Upload.Workers = 1
	}
	if cfg.VectorStore.Type == "pinecone" {
		if cfg.VectorStore.Pinecone == nil {
			cfg.VectorStore.Pinecone = &PineconeConfig{}
		}
		if cfg.VectorStore.Pinecone.APIKeyEnv == "" {
			cfg.VectorStore.Pinecone.APIKeyEnv = "PINECONE_API_KEY"
		}
		if cfg.VectorStore.Pinecone.IndexName == "" {
			cfg.VectorStore.Pinecone.IndexName = "evolve-consciousness"
		}
		if cfg.VectorStore.Pinecone.TimeoutSecs == 0 {
			cfg.VectorStore.Pinecone.TimeoutSecs = 30
		}
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "evolve"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.VectorStore.Type == "sqlite" {
		if cfg.VectorStore.SQLite == nil {
			cfg.VectorStore.SQLite = &SQLiteConfig{}
		}
		if cfg.VectorStore.SQLite.Path == "" {
			cfg.VectorStore.SQLite.Path = "evolve-vectors.db"
		}
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.TimeoutSecs == 0 {
		cfg.Server.TimeoutSecs = 120
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Ingest.Pattern == "" {
		cfg.Ingest.Pattern = "*.md"
	}
	if cfg.Ingest.UploadTimeoutSecs == 0 {
		cfg.Ingest.UploadTimeoutSecs = 120
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// applyEnvOverrides honours the environment variables the service has always read.
func applyEnvOverrides(cfg *AppConfig) error {
	if err := envInt("CHUNK_SIZE", &cfg.Chunker.ChunkSize); err != nil {
		return err
	}
	if err := envInt("CHUNK_OVERLAP", &cfg.Chunker.Overlap); err != nil {
		return err
	}
	if err := envInt("PINECONE_DIMENSION", &cfg.Embedder.Dimension); err != nil {
		return err
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" && cfg.Embedder.OpenAI != nil {
		cfg.Embedder.OpenAI.Model = v
	}
	if v := os.Getenv("CLAUDE_MODEL"); v != "" && cfg.Generator.Anthropic != nil {
		cfg.Generator.Anthropic.Model = v
	}
	if v := os.Getenv("PINECONE_INDEX_NAME"); v != "" && cfg.VectorStore.Pinecone != nil {
		cfg.VectorStore.Pinecone.IndexName = v
	}
	if v := os.Getenv("PINECONE_HOST"); v != "" && cfg.VectorStore.Pinecone != nil {
		cfg.VectorStore.Pinecone.Host = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return domain.NewError(domain.KindInvalidConfig, fmt.Sprintf("%s must be an integer", key), err)
	}
	*dst = n
	return nil
}
