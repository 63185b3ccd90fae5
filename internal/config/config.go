package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverQdrant   = "qdrant"
	DriverValkey   = "valkey"
	DriverEmbedded = "embedded"
)

// Embedding providers.
const (
	ProviderFastEmbed = "fastembed"
	ProviderOpenAI    = "openai"
)

// Config holds the vectro configuration. It is built once in main and passed
// to every component; nothing else reads the environment.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Collection CollectionConfig `yaml:"collection"`
	Query      QueryConfig      `yaml:"query"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Paths      PathsConfig      `yaml:"paths"`
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StoreConfig holds vector store connection settings.
type StoreConfig struct {
	Driver          string `yaml:"driver"` // qdrant, valkey, embedded (default: qdrant)
	URL             string `yaml:"url"`
	GRPCPort        int    `yaml:"grpc_port"`
	APIKey          string `yaml:"api_key"`
	Password        string `yaml:"password"`
	ProbeTimeoutSec int    `yaml:"probe_timeout_sec"`
	Path            string `yaml:"path"` // embedded driver data directory
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"` // fastembed, openai (default: fastembed)
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	CacheDir         string `yaml:"cache_dir"`
	QueryInstruction string `yaml:"query_instruction"`
	Cache            bool   `yaml:"cache"`
}

// CollectionConfig names the target collection.
type CollectionConfig struct {
	Name string `yaml:"name"`
}

// QueryConfig holds the embed/query task inputs.
type QueryConfig struct {
	Input string `yaml:"input"`
	Limit int    `yaml:"limit"`
}

// PipelineConfig holds step-list settings.
type PipelineConfig struct {
	Path    string `yaml:"path"`
	Isolate bool   `yaml:"isolate"` // run each task in its own process
}

// PathsConfig holds on-disk artifact locations.
type PathsConfig struct {
	StateDir  string `yaml:"state_dir"`
	Telemetry string `yaml:"telemetry"`
}

// HTTPConfig holds settings for the serve command.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// AuthConfig holds bearer tokens for the serve command.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node-exporter textfile path, empty disables
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads configuration for the given environment (local, dev, prod).
// The config file is optional; environment variables override it.
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env), ".codexrc", os.LookupEnv)
}

// LoadFile builds a Config from an optional YAML file, an optional .codexrc
// file and the environment, in increasing order of precedence.
func LoadFile(configPath, rcPath string, lookup LookupFunc) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(filepath.Clean(configPath))
	switch {
	case err == nil:
		data = expandEnvVars(data, lookup)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	if cfg.Store.URL == "" && rcPath != "" {
		rcURL, err := readRCValue(rcPath, "VECTRO_URL")
		if err != nil {
			return Config{}, err
		}
		cfg.Store.URL = rcURL
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return Config{}, err
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

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("VECTRO_URL", &c.Store.URL)
	str("VECTRO_STORE_DRIVER", &c.Store.Driver)
	str("VECTRO_API_KEY", &c.Store.APIKey)
	str("EMBED_PROVIDER", &c.Embedding.Provider)
	str("EMBED_MODEL", &c.Embedding.Model)
	str("OPENAI_API_KEY", &c.Embedding.APIKey)
	str("OPENAI_BASE_URL", &c.Embedding.BaseURL)
	str("CLASS_NAME", &c.Collection.Name)
	str("INPUT_QUERY", &c.Query.Input)
	str("LOG_LEVEL", &c.Logging.Level)

	if v, ok := lookup("VECTRO_GRPC_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VECTRO_GRPC_PORT: %w", err)
		}
		c.Store.GRPCPort = port
	}
	return nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = DriverQdrant
	}
	if c.Store.URL == "" {
		c.Store.URL = "http://localhost:8080"
	}
	if c.Store.GRPCPort <= 0 {
		c.Store.GRPCPort = 50051
	}
	if c.Store.ProbeTimeoutSec <= 0 {
		c.Store.ProbeTimeoutSec = 2
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join("data", "vectors")
	}
	if c.Store.HNSWM <= 0 {
		c.Store.HNSWM = 16
	}
	if c.Store.HNSWEFConstruct <= 0 {
		c.Store.HNSWEFConstruct = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderFastEmbed
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "all-MiniLM-L6-v2"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.CacheDir == "" {
		c.Embedding.CacheDir = "local_cache"
	}
	if c.Collection.Name == "" {
		c.Collection.Name = "CortexNote"
	}
	if c.Query.Limit <= 0 {
		c.Query.Limit = 3
	}
	if c.Pipeline.Path == "" {
		c.Pipeline.Path = filepath.Join("codex", "vectro-index.yaml")
	}
	if c.Paths.StateDir == "" {
		c.Paths.StateDir = "state"
	}
	if c.Paths.Telemetry == "" {
		c.Paths.Telemetry = filepath.Join("logs", "telemetry.json")
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 9090
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverQdrant, DriverValkey, DriverEmbedded:
	default:
		return fmt.Errorf("store.driver must be one of qdrant, valkey, embedded, got %q", c.Store.Driver)
	}
	if c.Store.Driver != DriverEmbedded {
		u, err := url.Parse(c.Store.URL)
		if err != nil {
			return fmt.Errorf("store.url: %w", err)
		}
		if u.Hostname() == "" {
			return fmt.Errorf("store.url must include a host, got %q", c.Store.URL)
		}
	}
	if c.Store.GRPCPort > 65535 {
		return fmt.Errorf("store.grpc_port must be between 1 and 65535, got %d", c.Store.GRPCPort)
	}
	switch c.Embedding.Provider {
	case ProviderFastEmbed, ProviderOpenAI:
	default:
		return fmt.Errorf("embedding.provider must be \"fastembed\" or \"openai\", got %q", c.Embedding.Provider)
	}
	if c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if strings.TrimSpace(c.Collection.Name) == "" {
		return fmt.Errorf("collection.name is required")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// readRCValue returns the value of key from a KEY=VALUE file, or "" if the
// file or key is absent.
func readRCValue(path, key string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, key+"="); ok {
			return strings.TrimSpace(v), nil
		}
	}
	return "", sc.Err()
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte, lookup LookupFunc) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val, _ := lookup(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
