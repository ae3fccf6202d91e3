// Package config loads vecsearch configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deidaraiorek/vecsearch/internal/corpus"
	"github.com/deidaraiorek/vecsearch/internal/storage"
)

const (
	SourceDump  = "dump"
	SourceCrawl = "crawl"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CorpusConfig selects where documents are read from during a build.
type CorpusConfig struct {
	Source         string   `yaml:"source"`
	DumpPattern    string   `yaml:"dumpPattern"`
	CrawlDB        string   `yaml:"crawlDB"`
	CrawlBatchSize int      `yaml:"crawlBatchSize"`
	StopWords      []string `yaml:"stopWords"`
}

type IndexerConfig struct {
	DocumentLimit  int  `yaml:"documentLimit"`
	TokenLimit     int  `yaml:"tokenLimit"`
	TopKPerTerm    int  `yaml:"topKPerTerm"`
	SecondaryIndex bool `yaml:"secondaryIndex"`
}

type SearchConfig struct {
	Batched bool `yaml:"batched"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Addr returns the listen address for Port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type LoggingConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads the YAML file at path when path is non-empty, then applies
// VECSEARCH_* environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: storage.DefaultPath,
		},
		Corpus: CorpusConfig{
			Source:         SourceDump,
			DumpPattern:    corpus.DefaultDumpPattern,
			CrawlDB:        "crawler.db",
			CrawlBatchSize: corpus.DefaultCrawlBatchSize,
		},
		Indexer: IndexerConfig{
			DocumentLimit: 1000,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Env:   "dev",
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Corpus.Source {
	case SourceDump, SourceCrawl:
	default:
		return fmt.Errorf("corpus.source must be %q or %q, got %q", SourceDump, SourceCrawl, c.Corpus.Source)
	}
	if c.Corpus.CrawlBatchSize <= 0 {
		return fmt.Errorf("corpus.crawlBatchSize must be positive, got %d", c.Corpus.CrawlBatchSize)
	}
	if c.Indexer.DocumentLimit <= 0 {
		return fmt.Errorf("indexer.documentLimit must be positive, got %d", c.Indexer.DocumentLimit)
	}
	if c.Indexer.TokenLimit < 0 {
		return fmt.Errorf("indexer.tokenLimit must not be negative, got %d", c.Indexer.TokenLimit)
	}
	if c.Indexer.TopKPerTerm < 0 {
		return fmt.Errorf("indexer.topKPerTerm must not be negative, got %d", c.Indexer.TopKPerTerm)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

// applyEnvOverrides reads VECSEARCH_* environment variables and overrides
// the corresponding config fields. Unparsable numbers are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VECSEARCH_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("VECSEARCH_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = v
	}
	if v := os.Getenv("VECSEARCH_CORPUS_DUMP_PATTERN"); v != "" {
		cfg.Corpus.DumpPattern = v
	}
	if v := os.Getenv("VECSEARCH_CORPUS_CRAWL_DB"); v != "" {
		cfg.Corpus.CrawlDB = v
	}
	if v := os.Getenv("VECSEARCH_CORPUS_STOP_WORDS"); v != "" {
		cfg.Corpus.StopWords = strings.Split(v, ",")
	}
	setInt("VECSEARCH_INDEXER_DOCUMENT_LIMIT", &cfg.Indexer.DocumentLimit)
	setInt("VECSEARCH_INDEXER_TOKEN_LIMIT", &cfg.Indexer.TokenLimit)
	setInt("VECSEARCH_INDEXER_TOP_K_PER_TERM", &cfg.Indexer.TopKPerTerm)
	setBool("VECSEARCH_INDEXER_SECONDARY_INDEX", &cfg.Indexer.SecondaryIndex)
	setBool("VECSEARCH_SEARCH_BATCHED", &cfg.Search.Batched)
	setInt("VECSEARCH_SERVER_PORT", &cfg.Server.Port)
	if v := os.Getenv("VECSEARCH_LOGGING_ENV"); v != "" {
		cfg.Logging.Env = v
	}
	if v := os.Getenv("VECSEARCH_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	setBool("VECSEARCH_METRICS_ENABLED", &cfg.Metrics.Enabled)
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
