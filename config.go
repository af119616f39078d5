package fastache

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config contains the sizing and behaviour settings of the engine.
type Config struct {
	// MaxNodes is the structure-node capacity of each compiled template.
	MaxNodes int `yaml:"max_nodes"`
	// ScopeDepth bounds section nesting during evaluation.
	ScopeDepth int `yaml:"scope_depth"`
	// SourceSize bounds the template bytes read from a stream or file.
	SourceSize int `yaml:"source_size"`
	// OutputSize is the render buffer size.
	OutputSize int `yaml:"output_size"`
	// CacheEntries is the number of templates the engine cache holds.
	CacheEntries int `yaml:"cache_entries"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Sanitize selects a string sanitizer: none, strict or ugc.
	Sanitize string `yaml:"sanitize"`
	// Extensions lists the template file extensions the engine loads.
	Extensions []string `yaml:"extensions"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxNodes:     4096,
		ScopeDepth:   64,
		SourceSize:   1 << 20,
		OutputSize:   1 << 20,
		CacheEntries: 256,
		LogLevel:     "info",
		Sanitize:     "none",
		Extensions:   []string{".mustache", ".html", ".tpl"},
	}
}

// ConfigFromEnvironment overlays FASTACHE_* environment variables on the
// defaults. Unparseable values are ignored.
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()
	envInt("FASTACHE_MAX_NODES", &config.MaxNodes)
	envInt("FASTACHE_SCOPE_DEPTH", &config.ScopeDepth)
	envInt("FASTACHE_SOURCE_SIZE", &config.SourceSize)
	envInt("FASTACHE_OUTPUT_SIZE", &config.OutputSize)
	envInt("FASTACHE_CACHE_ENTRIES", &config.CacheEntries)
	if val := os.Getenv("FASTACHE_LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToLower(val)
	}
	if val := os.Getenv("FASTACHE_SANITIZE"); val != "" {
		config.Sanitize = strings.ToLower(val)
	}
	if val := os.Getenv("FASTACHE_EXTENSIONS"); val != "" {
		var exts []string
		for _, e := range strings.Split(val, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exts = append(exts, e)
			}
		}
		config.Extensions = exts
	}
	return config
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

// LoadConfig reads a YAML file on top of the environment configuration.
func LoadConfig(path string) (*Config, error) {
	config := ConfigFromEnvironment()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, errors.Join(ErrFileOpen, err))
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MaxNodes <= 0 {
		return errors.New("max nodes must be positive")
	}
	if c.ScopeDepth <= 0 {
		return errors.New("scope depth must be positive")
	}
	if c.SourceSize <= 0 {
		return errors.New("source size must be positive")
	}
	if c.OutputSize <= 0 {
		return errors.New("output size must be positive")
	}
	if c.CacheEntries < 0 {
		return errors.New("cache entries cannot be negative")
	}
	if _, ok := parseLogLevel(c.LogLevel); !ok {
		return errors.New("invalid log level: " + c.LogLevel)
	}
	switch c.Sanitize {
	case "", "none", "strict", "ugc":
	default:
		return errors.New("invalid sanitize policy: " + c.Sanitize)
	}
	return nil
}
