// ABOUTME: Configuration management for echonote with YAML config loading.
// ABOUTME: Handles credentials, store selection, .env files, env overrides, and ~ expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when no credential is configured for a remote service.
var ErrMissingAPIKey = errors.New("configuration missing: API key not set")

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendQdrant   = "qdrant"
)

// Config stores echonote configuration loaded from ~/.config/echonote/config.yaml.
type Config struct {
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// OpenAIConfig holds the OpenAI credential used for embeddings and transcription.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// GeminiConfig holds the Gemini credential for the alternate embedding provider.
type GeminiConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider,omitempty"` // "openai" or "gemini"
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Backend     string       `yaml:"backend,omitempty"` // "memory", "sqlite", "postgres", or "qdrant"
	SQLitePath  string       `yaml:"sqlite_path,omitempty"`
	PostgresDSN string       `yaml:"postgres_dsn,omitempty"`
	Qdrant      QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig holds Qdrant gRPC connection settings.
type QdrantConfig struct {
	Host   string `yaml:"host,omitempty"`
	Port   int    `yaml:"port,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
	UseTLS bool   `yaml:"use_tls,omitempty"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // "text" or "json"
}

// EmbeddingProvider returns the configured provider, defaulting to OpenAI.
func (c *Config) EmbeddingProvider() string {
	if c.Embedding.Provider == "" {
		return ProviderOpenAI
	}
	return strings.ToLower(c.Embedding.Provider)
}

// StoreBackend returns the configured backend, defaulting to the in-memory store.
func (c *Config) StoreBackend() string {
	if c.Store.Backend == "" {
		return BackendMemory
	}
	return strings.ToLower(c.Store.Backend)
}

// HasOpenAIKey returns true if an OpenAI credential is configured.
func (c *Config) HasOpenAIKey() bool {
	return strings.TrimSpace(c.OpenAI.APIKey) != ""
}

// RequireAPIKey fails fast when the credentials needed for remote calls are absent.
// Transcription always uses OpenAI; embeddings use the selected provider.
func (c *Config) RequireAPIKey() error {
	if !c.HasOpenAIKey() {
		return fmt.Errorf("%w: run 'echonote setup' or set OPENAI_API_KEY", ErrMissingAPIKey)
	}
	if c.EmbeddingProvider() == ProviderGemini && strings.TrimSpace(c.Gemini.APIKey) == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY or gemini.api_key for the gemini embedder", ErrMissingAPIKey)
	}
	return nil
}

// GetSQLitePath returns the SQLite database path, defaulting to the data directory.
func (c *Config) GetSQLitePath() (string, error) {
	if c.Store.SQLitePath != "" {
		return ExpandPath(c.Store.SQLitePath)
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "notes.db"), nil
}

// GetServerAddr returns the HTTP listen address.
func (c *Config) GetServerAddr() string {
	if c.Server.Addr == "" {
		return ":8080"
	}
	return c.Server.Addr
}

// DataDir returns the default echonote data directory.
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "echonote"), nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "echonote", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from disk, then applies .env and environment overrides.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}

	// .env never overrides variables that are already exported
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads only the YAML config file, without env overrides.
// Used by setup so that exported variables are not persisted to disk.
func LoadFile() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Embedding.Provider, "ECHONOTE_EMBEDDER")
	setString(&c.Store.Backend, "ECHONOTE_STORE")
	setString(&c.Store.SQLitePath, "ECHONOTE_SQLITE_PATH")
	setString(&c.Store.PostgresDSN, "ECHONOTE_POSTGRES_DSN")
	setString(&c.Store.Qdrant.Host, "ECHONOTE_QDRANT_HOST")
	setString(&c.Store.Qdrant.APIKey, "ECHONOTE_QDRANT_API_KEY")
	setString(&c.Server.Addr, "ECHONOTE_ADDR")
	setString(&c.Log.Level, "ECHONOTE_LOG_LEVEL")
	setString(&c.Log.Format, "ECHONOTE_LOG_FORMAT")

	if v := os.Getenv("ECHONOTE_QDRANT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Store.Qdrant.Port = port
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
