// Package config loads the service configuration from an optional YAML file
// and SATCHEL_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"satchel/internal/observability"
	"satchel/internal/picker"
)

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig                `mapstructure:"server" yaml:"server"`
	Upload    UploadConfig                `mapstructure:"upload" yaml:"upload"`
	Knowledge KnowledgeConfig             `mapstructure:"knowledge" yaml:"knowledge"`
	Drive     DriveConfig                 `mapstructure:"drive" yaml:"drive"`
	User      UserConfig                  `mapstructure:"user" yaml:"user"`
	Logging   observability.LogConfig     `mapstructure:"logging" yaml:"logging"`
	Metrics   observability.MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ServerConfig configures the HTTP delivery layer.
type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// UploadConfig configures the upload service client and intake policy.
type UploadConfig struct {
	EndpointURL string `mapstructure:"endpoint_url" yaml:"endpoint_url"`
	AuthToken   string `mapstructure:"auth_token" yaml:"auth_token"`
	// MaxFileSizeMB caps per-file size at intake; nil or absent = unlimited.
	MaxFileSizeMB *float64 `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb"`
	// SpeechToTextLanguage is attached as metadata on audio/video uploads.
	SpeechToTextLanguage string `mapstructure:"stt_language" yaml:"stt_language"`
	// ResourceURLBase is prepended to /files/<id> for uploaded items.
	ResourceURLBase string `mapstructure:"resource_url_base" yaml:"resource_url_base"`
}

// KnowledgeConfig configures the knowledge-base provider.
type KnowledgeConfig struct {
	EndpointURL string        `mapstructure:"endpoint_url" yaml:"endpoint_url"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// DriveConfig gates and configures the Google Drive import path.
type DriveConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Picker  picker.Config `mapstructure:",squash" yaml:",inline"`
}

// UserConfig is the process-wide user/permission context.
type UserConfig struct {
	Role string `mapstructure:"role" yaml:"role"`
	// FileUpload is tri-state: unset defaults to allowed.
	FileUpload *bool `mapstructure:"file_upload" yaml:"file_upload"`
}

// Load reads configuration from path (optional) and the environment, then
// applies defaults. When a path is given the file must exist and parse.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SATCHEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8090)
	v.SetDefault("knowledge.cache_ttl", "15m")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.prometheus_port", 9091)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return Normalize(&cfg), nil
}

// Normalize fills defaults for anything left unset and clamps nonsense
// values. It is idempotent.
func Normalize(cfg *Config) *Config {
	if strings.TrimSpace(cfg.Server.Host) == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Knowledge.CacheTTL <= 0 {
		cfg.Knowledge.CacheTTL = 15 * time.Minute
	}
	if cfg.Upload.MaxFileSizeMB != nil && *cfg.Upload.MaxFileSizeMB <= 0 {
		// A non-positive limit means no limit was intended.
		cfg.Upload.MaxFileSizeMB = nil
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if strings.TrimSpace(cfg.Logging.Format) == "" {
		cfg.Logging.Format = "json"
	}
	return cfg
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Upload.EndpointURL) == "" {
		return fmt.Errorf("upload.endpoint_url is required")
	}
	if strings.TrimSpace(c.Knowledge.EndpointURL) == "" {
		return fmt.Errorf("knowledge.endpoint_url is required")
	}
	return nil
}
