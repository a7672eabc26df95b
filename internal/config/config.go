// Package config loads reeltap's runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LogConfig controls the slog/lumberjack logging pipeline.
type LogConfig struct {
	File       string
	Level      string
	MaxSize    int // MB
	MaxAge     int // days
	MaxBackups int
	Compress   bool
}

// Config holds all tunables for the service, loaded once at startup.
type Config struct {
	BindAddress string
	APIKey      string
	WorkerCount int

	ExtractorBinary string

	ProbeCacheTTLSeconds int
	ProbeCacheSize       int

	ProbeTimeoutSeconds   int
	FetchTimeoutSeconds   int
	RequestTimeoutSeconds int

	DownloadDir              string
	MaxDownloadSizeMB        int
	MaxDurationSeconds       int
	ReaperWindowMinutes      int
	ReaperTickSeconds        int
	PostResponseDelaySeconds int

	DefaultProfile         string
	ProfileOrder           []string
	AllowCredentialProfile bool
	CredentialBlobBase64   string

	Log LogConfig
}

// Default returns a Config populated with the service's built-in defaults.
// Values are overridden by Load when the corresponding environment
// variable is set.
func Default() *Config {
	return &Config{
		BindAddress:              ":8080",
		ExtractorBinary:          "yt-dlp",
		ProbeCacheTTLSeconds:     30,
		ProbeCacheSize:           256,
		ProbeTimeoutSeconds:      120,
		FetchTimeoutSeconds:      1800,
		RequestTimeoutSeconds:    300,
		DownloadDir:              "data/downloads",
		MaxDownloadSizeMB:        2048,
		MaxDurationSeconds:       7200,
		ReaperWindowMinutes:      60,
		ReaperTickSeconds:        300,
		PostResponseDelaySeconds: 60,
		ProfileOrder:             []string{"tv", "ios", "android", "mweb", "web", "cookies"},
		AllowCredentialProfile:   true,
		Log: LogConfig{
			File:       "reeltap.log",
			Level:      "info",
			MaxSize:    5,
			MaxAge:     14,
			MaxBackups: 5,
			Compress:   true,
		},
	}
}

// Load reads configuration from environment variables (prefixed REELTAP_),
// falling back to Default() for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REELTAP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := Default()

	bindString(v, "bind_address", &cfg.BindAddress)
	bindString(v, "api_key", &cfg.APIKey)
	bindInt(v, "worker_count", &cfg.WorkerCount)
	bindString(v, "extractor_binary", &cfg.ExtractorBinary)
	bindInt(v, "probe_cache_ttl_seconds", &cfg.ProbeCacheTTLSeconds)
	bindInt(v, "probe_cache_size", &cfg.ProbeCacheSize)
	bindInt(v, "probe_timeout_seconds", &cfg.ProbeTimeoutSeconds)
	bindInt(v, "fetch_timeout_seconds", &cfg.FetchTimeoutSeconds)
	bindInt(v, "request_timeout_seconds", &cfg.RequestTimeoutSeconds)
	bindString(v, "download_dir", &cfg.DownloadDir)
	bindInt(v, "max_download_size_mb", &cfg.MaxDownloadSizeMB)
	bindInt(v, "max_duration_seconds", &cfg.MaxDurationSeconds)
	bindInt(v, "reaper_window_minutes", &cfg.ReaperWindowMinutes)
	bindInt(v, "reaper_tick_seconds", &cfg.ReaperTickSeconds)
	bindInt(v, "post_response_delay_seconds", &cfg.PostResponseDelaySeconds)
	bindString(v, "default_profile", &cfg.DefaultProfile)
	bindBool(v, "allow_credential_profile", &cfg.AllowCredentialProfile)
	bindString(v, "credential_blob_base64", &cfg.CredentialBlobBase64)
	bindString(v, "log_file", &cfg.Log.File)
	bindString(v, "log_level", &cfg.Log.Level)
	bindInt(v, "log_max_size_mb", &cfg.Log.MaxSize)
	bindInt(v, "log_max_age_days", &cfg.Log.MaxAge)
	bindInt(v, "log_max_backups", &cfg.Log.MaxBackups)

	if order := v.GetString("default_order"); order != "" {
		cfg.ProfileOrder = strings.Split(order, ",")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("config: REELTAP_API_KEY must be set")
	}

	return cfg, nil
}

func bindString(v *viper.Viper, key string, dst *string) {
	if val := v.GetString(key); val != "" {
		*dst = val
	}
}

func bindInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func bindBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

// ProbeCacheTTL returns the probe cache entry lifetime as a duration.
func (c *Config) ProbeCacheTTL() time.Duration {
	return time.Duration(c.ProbeCacheTTLSeconds) * time.Second
}

// ProbeTimeout returns the per-probe-attempt deadline.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// FetchTimeout returns the per-fetch-attempt deadline.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// RequestTimeout returns the overall request deadline enforced at the API layer.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ReaperWindow returns the max age a stored file is allowed to reach
// before the background sweep deletes it.
func (c *Config) ReaperWindow() time.Duration {
	return time.Duration(c.ReaperWindowMinutes) * time.Minute
}

// ReaperTick returns how often the reaper sweep runs.
func (c *Config) ReaperTick() time.Duration {
	return time.Duration(c.ReaperTickSeconds) * time.Second
}

// ReaperCronSpec renders ReaperTick as a robfig/cron "@every" spec.
func (c *Config) ReaperCronSpec() string {
	return fmt.Sprintf("@every %ds", c.ReaperTickSeconds)
}

// PostResponseDelay returns how long after a successful response a
// fetched file is eagerly deleted, ahead of the reaper's own sweep.
func (c *Config) PostResponseDelay() time.Duration {
	return time.Duration(c.PostResponseDelaySeconds) * time.Second
}

// MaxDownloadSizeBytes returns the size cap enforced mid-download.
func (c *Config) MaxDownloadSizeBytes() int64 {
	return int64(c.MaxDownloadSizeMB) * 1 << 20
}
