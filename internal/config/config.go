package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/domainhound/domainhound/internal/journal"
)

// Config holds the full application configuration.
type Config struct {
	Registrar RegistrarConfig `yaml:"registrar" mapstructure:"registrar"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Archive   ArchiveConfig   `yaml:"archive" mapstructure:"archive"`
	Journal   JournalConfig   `yaml:"journal" mapstructure:"journal"`
	Run       RunConfig       `yaml:"run" mapstructure:"run"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// RegistrarConfig holds internet.bs API credentials.
type RegistrarConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	Password string `yaml:"password" mapstructure:"password"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// SearchConfig holds Google Custom Search credentials.
type SearchConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	CX      string `yaml:"cx" mapstructure:"cx"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ArchiveConfig configures the Wayback Machine client.
type ArchiveConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	CDXLimit int    `yaml:"cdx_limit" mapstructure:"cdx_limit"`
}

// JournalConfig configures the resume journal backend.
type JournalConfig struct {
	Driver      string              `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string              `yaml:"database_url" mapstructure:"database_url"`
	Pool        *journal.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// RunConfig tunes one pipeline run.
type RunConfig struct {
	Concurrency       int     `yaml:"concurrency" mapstructure:"concurrency"`
	MaxScreenshots    int     `yaml:"max_screenshots" mapstructure:"max_screenshots"`
	OnProviderFailure string  `yaml:"on_provider_failure" mapstructure:"on_provider_failure"`
	DedupeDomains     bool    `yaml:"dedupe_domains" mapstructure:"dedupe_domains"`
	OutputDir         string  `yaml:"output_dir" mapstructure:"output_dir"`
	PolicyFile        string  `yaml:"policy_file" mapstructure:"policy_file"`
	ScreenshotRPS     float64 `yaml:"screenshot_rps" mapstructure:"screenshot_rps"`
	ScreenshotBurst   int     `yaml:"screenshot_burst" mapstructure:"screenshot_burst"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOMAINHOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("registrar.base_url", "https://api.internet.bs")
	v.SetDefault("search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("archive.base_url", "https://web.archive.org")
	v.SetDefault("archive.cdx_limit", 50)
	v.SetDefault("journal.driver", "sqlite")
	v.SetDefault("run.concurrency", 5)
	v.SetDefault("run.max_screenshots", 5)
	v.SetDefault("run.on_provider_failure", "degrade")
	v.SetDefault("run.dedupe_domains", true)
	v.SetDefault("run.output_dir", "output")
	v.SetDefault("run.screenshot_rps", 2)
	v.SetDefault("run.screenshot_burst", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Run.OnProviderFailure {
	case "degrade", "abort":
	default:
		return eris.Errorf("config: on_provider_failure must be degrade or abort, got %q", c.Run.OnProviderFailure)
	}
	switch c.Journal.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: journal driver must be sqlite or postgres, got %q", c.Journal.Driver)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
