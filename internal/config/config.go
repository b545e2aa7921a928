package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the tracker and its CLI read at startup.
type Config struct {
	// Mode is the deployment mode ("development", "packaged", "ci").
	Mode string `yaml:"mode"`

	// Storage selects and configures the graph persistence backend.
	Storage StorageConfig `yaml:"storage"`

	// Watch configures the filesystem event responder.
	Watch WatchConfig `yaml:"watch"`

	// Cache holds cache directory, TTL and size settings. Only
	// validation reads them; the runner memoizes results on the graph
	// itself and does not consult this section.
	Cache CacheConfig `yaml:"cache"`

	// Logging configures the process-wide logger.
	Logging LoggingConfig `yaml:"logging"`

	// GraphMirror configures the optional best-effort Neo4j mirror.
	GraphMirror GraphMirrorConfig `yaml:"graph_mirror"`
}

// StorageConfig selects the persistence backend for the serialized
// request graph and its parameters.
type StorageConfig struct {
	// Type is one of "file", "bolt", "sqlite", "postgres", "redis".
	Type        string `yaml:"type"`
	FilePath    string `yaml:"file_path"`
	BoltPath    string `yaml:"bolt_path"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisKey    string `yaml:"redis_key"`
}

// WatchConfig tunes the filesystem event responder.
type WatchConfig struct {
	DebounceInterval time.Duration `yaml:"debounce_interval"`
	RateLimitPerSec  float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst   int           `yaml:"rate_limit_burst"`
}

// CacheConfig holds cache settings that the runner does not read.
type CacheConfig struct {
	Directory string        `yaml:"directory"`
	TTL       time.Duration `yaml:"ttl"`
	MaxSize   int64         `yaml:"max_size"`
}

// LoggingConfig configures the process-wide logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
	JSONFormat bool   `yaml:"json_format"`
}

// GraphMirrorConfig configures the optional Neo4j export of the graph
// for operator debugging. Disabled unless Enabled is true; setting
// NEO4J_URI in the environment sets both URI and Enabled.
type GraphMirrorConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default returns the configuration used when no config file or
// environment override is present.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Mode: "development",
		Storage: StorageConfig{
			Type:     "file",
			FilePath: filepath.Join(homeDir, ".reqtrack", "graph.msgpack"),
		},
		Watch: WatchConfig{
			DebounceInterval: 50 * time.Millisecond,
			RateLimitPerSec:  50,
			RateLimitBurst:   100,
		},
		Cache: CacheConfig{
			Directory: filepath.Join(homeDir, ".reqtrack", "cache"),
			TTL:       24 * time.Hour,
			MaxSize:   2 * 1024 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level:      "info",
			JSONFormat: false,
		},
	}
}

// Load reads configuration from path (or the standard search
// locations when path is empty), applying .env files and environment
// variable overrides on top of Default().
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("watch", cfg.Watch)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("logging", cfg.Logging)
	v.SetDefault("graph_mirror", cfg.GraphMirror)

	v.SetEnvPrefix("REQTRACK")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".reqtrack")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".reqtrack"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence, ignoring
// missing files.
func loadEnvFiles() {
	envFiles := []string{".env.local", ".env", ".env.example"}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".reqtrack", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies raw environment variable overrides on top
// of whatever Load already resolved from file/viper-env bindings.
func applyEnvOverrides(cfg *Config) {
	if mode := os.Getenv("REQTRACK_MODE"); mode != "" {
		cfg.Mode = mode
	}

	if storageType := os.Getenv("STORAGE_TYPE"); storageType != "" {
		cfg.Storage.Type = storageType
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		cfg.Storage.SQLitePath = expandPath(path)
	}
	if path := os.Getenv("BOLT_PATH"); path != "" {
		cfg.Storage.BoltPath = expandPath(path)
	}
	if path := os.Getenv("FILE_PATH"); path != "" {
		cfg.Storage.FilePath = expandPath(path)
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Storage.RedisAddr = addr
	}

	if dir := os.Getenv("CACHE_DIRECTORY"); dir != "" {
		cfg.Cache.Directory = expandPath(dir)
	}
	if size := os.Getenv("CACHE_MAX_SIZE"); size != "" {
		if sizeInt, err := strconv.ParseInt(size, 10, 64); err == nil {
			cfg.Cache.MaxSize = sizeInt
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		cfg.Logging.OutputFile = expandPath(file)
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		cfg.GraphMirror.URI = uri
		cfg.GraphMirror.Enabled = true
	}
	if user := os.Getenv("NEO4J_USERNAME"); user != "" {
		cfg.GraphMirror.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		cfg.GraphMirror.Password = pass
	}
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, path[1:])
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("mode", c.Mode)
	v.Set("storage", c.Storage)
	v.Set("watch", c.Watch)
	v.Set("cache", c.Cache)
	v.Set("logging", c.Logging)
	v.Set("graph_mirror", c.GraphMirror)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
