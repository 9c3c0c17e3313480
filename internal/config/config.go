package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort             = 5001
	defaultDownloadDir      = "downloads"
	defaultGracePeriod      = time.Second
	defaultProgressInterval = 500 * time.Millisecond
	defaultLogLevel         = "info"

	defaultVideoFormat = "bestvideo[ext=mp4][vcodec^=avc1]+bestaudio[ext=m4a]/best[ext=mp4]/best"

	defaultSummaryModel         = "gemini-1.5-flash"
	defaultSummaryMaxInputChars = 12000
	defaultSummaryMaxTokens     = 800
	defaultSummaryTemperature   = 0.7
	defaultSummaryRatePerMinute = 10

	defaultCacheProvider = "memory"
	defaultCacheSize     = 256
	defaultCacheTTL      = time.Hour
)

// Extractor configures the yt-dlp adapter.
type Extractor struct {
	Binary      string `yaml:"binary"`
	AutoInstall bool   `yaml:"auto_install"`
	Format      string `yaml:"format"`
}

// Summary configures the language-model adapter.
type Summary struct {
	APIKey        string  `yaml:"api_key"`
	Model         string  `yaml:"model"`
	MaxInputChars int     `yaml:"max_input_chars"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float32 `yaml:"temperature"`
	RatePerMinute int     `yaml:"rate_per_minute"`
}

// Cache configures the response cache shared by info, transcript and summary.
type Cache struct {
	Provider      string        `yaml:"provider"`
	Size          int           `yaml:"size"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddress  string        `yaml:"redis_address"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

// Config describes runtime configuration for the service.
type Config struct {
	Port             int           `yaml:"port"`
	LogLevel         string        `yaml:"log_level"`
	DownloadDir      string        `yaml:"download_dir"`
	GracePeriod      time.Duration `yaml:"grace_period"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	GuardStaleAfter  time.Duration `yaml:"guard_stale_after"`
	CaptionLanguages []string      `yaml:"caption_languages"`
	CORSOrigins      []string      `yaml:"cors_origins"`
	Extractor        Extractor     `yaml:"extractor"`
	Summary          Summary       `yaml:"summary"`
	Cache            Cache         `yaml:"cache"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Port:             defaultPort,
		LogLevel:         defaultLogLevel,
		DownloadDir:      defaultDownloadDir,
		GracePeriod:      defaultGracePeriod,
		ProgressInterval: defaultProgressInterval,
		CaptionLanguages: defaultCaptionLanguages(),
		Extractor:        Extractor{Format: defaultVideoFormat},
		Summary: Summary{
			Model:         defaultSummaryModel,
			MaxInputChars: defaultSummaryMaxInputChars,
			MaxTokens:     defaultSummaryMaxTokens,
			Temperature:   defaultSummaryTemperature,
			RatePerMinute: defaultSummaryRatePerMinute,
		},
		Cache: Cache{
			Provider: defaultCacheProvider,
			Size:     defaultCacheSize,
			TTL:      defaultCacheTTL,
		},
	}
}

func defaultCaptionLanguages() []string {
	return []string{"zh-TW", "zh-Hant", "zh-HK", "en"}
}

// Load reads YAML config from the provided path. If the file does not exist
// or is empty, defaults are returned with no error. Secrets set in the
// environment override the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("empty config path")
	}
	fileData, err := os.ReadFile(path) //nolint:gosec // config path is controlled by deployment
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(fileData) > 0 {
		if err := yaml.Unmarshal(fileData, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml: %w", err)
		}
	}
	applyEnv(&cfg)
	normalize(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Summary.APIKey = key
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Cache.RedisPassword = pw
	}
}

// basic normalization of zero values
func normalize(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = defaultDownloadDir
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = defaultGracePeriod
	}
	if cfg.ProgressInterval == 0 {
		cfg.ProgressInterval = defaultProgressInterval
	}
	if cfg.Extractor.Format == "" {
		cfg.Extractor.Format = defaultVideoFormat
	}
	if cfg.Summary.Model == "" {
		cfg.Summary.Model = defaultSummaryModel
	}
	if cfg.Summary.MaxInputChars == 0 {
		cfg.Summary.MaxInputChars = defaultSummaryMaxInputChars
	}
	if cfg.Summary.MaxTokens == 0 {
		cfg.Summary.MaxTokens = defaultSummaryMaxTokens
	}
	if cfg.Cache.Provider == "" {
		cfg.Cache.Provider = defaultCacheProvider
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = defaultCacheSize
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = defaultCacheTTL
	}
	cfg.Cache.Provider = strings.ToLower(strings.TrimSpace(cfg.Cache.Provider))
	cfg.CaptionLanguages = normalizeLanguages(cfg.CaptionLanguages)
}

func validate(cfg Config) error {
	switch {
	case cfg.Port < 0 || cfg.Port > 65535:
		return fmt.Errorf("invalid port: %d", cfg.Port)
	case cfg.GracePeriod < 0:
		return fmt.Errorf("invalid grace_period: %s (must be >= 0)", cfg.GracePeriod)
	case cfg.ProgressInterval < 0:
		return fmt.Errorf("invalid progress_interval: %s (must be > 0)", cfg.ProgressInterval)
	case cfg.GuardStaleAfter < 0:
		return fmt.Errorf("invalid guard_stale_after: %s (must be >= 0)", cfg.GuardStaleAfter)
	case cfg.Summary.RatePerMinute < 0:
		return fmt.Errorf("invalid summary.rate_per_minute: %d", cfg.Summary.RatePerMinute)
	case cfg.Cache.Size < 0:
		return fmt.Errorf("invalid cache.size: %d", cfg.Cache.Size)
	case cfg.Cache.Provider == "redis" && cfg.Cache.RedisAddress == "":
		return errors.New("cache.redis_address is required for the redis provider")
	}
	return nil
}

func normalizeLanguages(in []string) []string {
	if len(in) == 0 {
		return defaultCaptionLanguages()
	}
	seen := make(map[string]struct{}, len(in))
	normalized := make([]string, 0, len(in))
	for _, lang := range in {
		l := strings.TrimSpace(lang)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		normalized = append(normalized, l)
	}
	return normalized
}
