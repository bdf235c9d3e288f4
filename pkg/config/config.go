// Package config holds application configuration: server address, model
// artifact locations, cache settings and the scoring tunables. Defaults
// work out of the box; everything can be overridden via TOXGUARD_*
// environment variables or an optional YAML scoring file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sentinelml/toxguard/pkg/engine"
)

// Default model artifact locations and sources.
const (
	DefaultHarassmentModelPath = "./models/harassment"
	DefaultMisogynyModelPath   = "./models/misogyny"

	DefaultHarassmentModelRepo = "cardiffnlp/twitter-roberta-base-offensive"
	DefaultMisogynyModelRepo   = "annahaz/xlm-roberta-base-misogyny-sexism"
)

// Config is the full application configuration.
type Config struct {
	// Server
	Host string
	Port int

	// Models
	HarassmentModelPath string
	MisogynyModelPath   string
	HarassmentModelRepo string
	MisogynyModelRepo   string
	// PositiveLabel names the model output treated as the toxicity
	// probability, per model.
	HarassmentPositiveLabel string
	MisogynyPositiveLabel   string
	OnnxLibraryPath         string
	AutoDownloadModels      bool
	MaxTextLength           int

	// Cache (disabled when RedisAddr is empty)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// ScoringFile optionally points at a YAML file overriding the
	// scoring defaults.
	ScoringFile string

	Scoring engine.ScoringConfig
}

// NewDefaultConfig returns the out-of-the-box configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Host:                    "0.0.0.0",
		Port:                    8080,
		HarassmentModelPath:     DefaultHarassmentModelPath,
		MisogynyModelPath:       DefaultMisogynyModelPath,
		HarassmentModelRepo:     DefaultHarassmentModelRepo,
		MisogynyModelRepo:       DefaultMisogynyModelRepo,
		HarassmentPositiveLabel: "offensive",
		MisogynyPositiveLabel:   "misogynist",
		AutoDownloadModels:      false,
		MaxTextLength:           2048,
		CacheTTL:                15 * time.Minute,
		Scoring:                 engine.DefaultScoringConfig(),
	}
}

// FromEnv builds the configuration from defaults, the optional scoring
// file and TOXGUARD_* environment overrides, in that order.
func FromEnv() (*Config, error) {
	cfg := NewDefaultConfig()

	cfg.Host = GetEnvStr("TOXGUARD_HOST", cfg.Host)
	cfg.Port = GetEnvInt("TOXGUARD_PORT", cfg.Port)

	cfg.HarassmentModelPath = GetEnvStr("TOXGUARD_HARASSMENT_MODEL_PATH", cfg.HarassmentModelPath)
	cfg.MisogynyModelPath = GetEnvStr("TOXGUARD_MISOGYNY_MODEL_PATH", cfg.MisogynyModelPath)
	cfg.HarassmentModelRepo = GetEnvStr("TOXGUARD_HARASSMENT_MODEL_REPO", cfg.HarassmentModelRepo)
	cfg.MisogynyModelRepo = GetEnvStr("TOXGUARD_MISOGYNY_MODEL_REPO", cfg.MisogynyModelRepo)
	cfg.HarassmentPositiveLabel = GetEnvStr("TOXGUARD_HARASSMENT_POSITIVE_LABEL", cfg.HarassmentPositiveLabel)
	cfg.MisogynyPositiveLabel = GetEnvStr("TOXGUARD_MISOGYNY_POSITIVE_LABEL", cfg.MisogynyPositiveLabel)
	cfg.OnnxLibraryPath = GetEnvStr("TOXGUARD_ONNX_LIBRARY_PATH", cfg.OnnxLibraryPath)
	cfg.AutoDownloadModels = GetEnvBool("TOXGUARD_AUTO_DOWNLOAD_MODELS", cfg.AutoDownloadModels)
	cfg.MaxTextLength = GetEnvInt("TOXGUARD_MAX_TEXT_LENGTH", cfg.MaxTextLength)

	cfg.RedisAddr = GetEnvStr("TOXGUARD_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = GetEnvStr("TOXGUARD_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = GetEnvInt("TOXGUARD_REDIS_DB", cfg.RedisDB)
	if ttl := GetEnvInt("TOXGUARD_CACHE_TTL_SECONDS", 0); ttl > 0 {
		cfg.CacheTTL = time.Duration(ttl) * time.Second
	}

	cfg.ScoringFile = GetEnvStr("TOXGUARD_SCORING_FILE", cfg.ScoringFile)
	if cfg.ScoringFile != "" {
		scoring, err := engine.LoadScoringConfig(cfg.ScoringFile)
		if err != nil {
			return nil, err
		}
		cfg.Scoring = scoring
	}

	cfg.Scoring.HarassmentWeight = GetEnvFloat("TOXGUARD_HARASSMENT_WEIGHT", cfg.Scoring.HarassmentWeight)
	cfg.Scoring.MisogynyWeight = GetEnvFloat("TOXGUARD_MISOGYNY_WEIGHT", cfg.Scoring.MisogynyWeight)
	cfg.Scoring.ToxicThreshold = GetEnvFloat("TOXGUARD_TOXIC_THRESHOLD", cfg.Scoring.ToxicThreshold)
	cfg.Scoring.CategoryThreshold = GetEnvFloat("TOXGUARD_CATEGORY_THRESHOLD", cfg.Scoring.CategoryThreshold)

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the host:port the server binds.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// GetEnvStr returns the env var value or the default when unset.
func GetEnvStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetEnvInt returns the env var parsed as int, or the default when
// unset or unparseable.
func GetEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// GetEnvFloat returns the env var parsed as float64, or the default
// when unset or unparseable.
func GetEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// GetEnvBool returns the env var parsed as bool, or the default when
// unset or unparseable.
func GetEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
