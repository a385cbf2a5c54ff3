package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Embedding provider kinds.
const (
	ProviderRemote = "remote"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"
)

// Config holds the scifinder configuration shared by the API server and the fill job.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxUploadBytes  int64 `yaml:"max_upload_bytes"`
}

// DatabaseConfig holds Redis Stack connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	OpTimeoutSec     int      `yaml:"op_timeout_sec"`
}

// IndexConfig holds index naming and KNN settings.
type IndexConfig struct {
	KeyPrefix     string `yaml:"key_prefix"`
	NumCandidates int    `yaml:"num_candidates"`
	DefaultTopK   int    `yaml:"default_top_k"`
}

// IngestConfig holds bulk ingestion settings.
type IngestConfig struct {
	BatchSize   int    `yaml:"batch_size"`
	DatasetPath string `yaml:"dataset_path"`
	MappingPath string `yaml:"mapping_path"`
}

// EmbeddingConfig selects and configures the single active embedding provider.
type EmbeddingConfig struct {
	Provider   string       `yaml:"provider"` // remote, ollama, local
	Model      string       `yaml:"model"`
	Dimensions int          `yaml:"dimensions"`
	TimeoutSec int          `yaml:"timeout_sec"`
	Cache      bool         `yaml:"cache"`
	CacheTTL   int          `yaml:"cache_ttl_sec"` // 0 keeps cached vectors forever
	Remote     RemoteConfig `yaml:"remote"`
	Ollama     OllamaConfig `yaml:"ollama"`
	Local      LocalConfig  `yaml:"local"`
}

// RemoteConfig holds OpenAI-compatible API settings.
type RemoteConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// OllamaConfig holds Ollama server settings.
type OllamaConfig struct {
	ServerURL string `yaml:"server_url"`
}

// LocalConfig points at the in-process model artifact.
type LocalConfig struct {
	ModelPath string `yaml:"model_path"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes raw YAML, substituting ${VAR} references first.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 20 << 20
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.OpTimeoutSec <= 0 {
		c.Database.OpTimeoutSec = 5
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "scifinder:"
	}
	if c.Index.NumCandidates <= 0 {
		c.Index.NumCandidates = 100
	}
	if c.Index.DefaultTopK <= 0 {
		c.Index.DefaultTopK = 5
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 50
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderLocal
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 15
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Index.DefaultTopK > c.Index.NumCandidates {
		return fmt.Errorf("index.default_top_k (%d) must not exceed index.num_candidates (%d)",
			c.Index.DefaultTopK, c.Index.NumCandidates)
	}

	e := c.Embedding
	switch e.Provider {
	case ProviderRemote:
		if e.Model == "" {
			return fmt.Errorf("embedding.model is required for provider %q", e.Provider)
		}
		if e.Dimensions <= 0 {
			return fmt.Errorf("embedding.dimensions must be positive for provider %q", e.Provider)
		}
	case ProviderOllama:
		if e.Model == "" {
			return fmt.Errorf("embedding.model is required for provider %q", e.Provider)
		}
		if e.Dimensions <= 0 {
			return fmt.Errorf("embedding.dimensions must be positive for provider %q", e.Provider)
		}
		if e.Ollama.ServerURL == "" {
			return fmt.Errorf("embedding.ollama.server_url is required")
		}
	case ProviderLocal:
		if e.Local.ModelPath == "" {
			return fmt.Errorf("embedding.local.model_path is required")
		}
	default:
		return fmt.Errorf("embedding.provider must be %q, %q or %q, got %q",
			ProviderRemote, ProviderOllama, ProviderLocal, e.Provider)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file, for tests run from package dirs
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
