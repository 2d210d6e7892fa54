package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/snarg/transcript-viewer/internal/timeline"
)

type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	CORSOrigins  string        `env:"CORS_ORIGINS"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	// Media catalog: the manifest lists audio/transcript/VTT keys relative
	// to MediaDir (or the S3 prefix).
	MediaDir    string `env:"MEDIA_DIR" envDefault:"./media"`
	ManifestKey string `env:"MANIFEST_KEY" envDefault:"config.json"`
	WatchMedia  bool   `env:"WATCH_MEDIA" envDefault:"true"`

	WordsBefore int           `env:"TIMELINE_WORDS_BEFORE" envDefault:"3"`
	WordsAfter  int           `env:"TIMELINE_WORDS_AFTER" envDefault:"3"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"2h"`

	// Optional. When set, static bucket edits survive restarts.
	DatabaseURL string `env:"DATABASE_URL"`

	// Optional playback tick source.
	MQTTBrokerURL   string `env:"MQTT_BROKER_URL"`
	MQTTClientID    string `env:"MQTT_CLIENT_ID" envDefault:"transcript-viewer"`
	MQTTTopicPrefix string `env:"MQTT_TOPIC_PREFIX" envDefault:"viewer"`
	MQTTUsername    string `env:"MQTT_USERNAME"`
	MQTTPassword    string `env:"MQTT_PASSWORD"`

	S3 S3Config
}

// S3Config selects S3-compatible object storage for media files.
type S3Config struct {
	Bucket        string        `env:"S3_BUCKET"`
	Endpoint      string        `env:"S3_ENDPOINT"`
	Region        string        `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKey     string        `env:"S3_ACCESS_KEY"`
	SecretKey     string        `env:"S3_SECRET_KEY"`
	Prefix        string        `env:"S3_PREFIX"`
	PresignExpiry time.Duration `env:"S3_PRESIGN_EXPIRY" envDefault:"1h"`
}

// Enabled reports whether S3 storage is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// AllowedOrigins splits CORSOrigins into a list. Empty means allow all.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile       string
	HTTPAddr      string
	LogLevel      string
	MediaDir      string
	DatabaseURL   string
	MQTTBrokerURL string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.MediaDir != "" {
		cfg.MediaDir = overrides.MediaDir
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.MQTTBrokerURL != "" {
		cfg.MQTTBrokerURL = overrides.MQTTBrokerURL
	}

	// Negative window sizes fall back to the defaults, as in viewer.NewManager.
	if cfg.WordsBefore < 0 {
		cfg.WordsBefore = timeline.DefaultWordsBefore
	}
	if cfg.WordsAfter < 0 {
		cfg.WordsAfter = timeline.DefaultWordsAfter
	}

	return cfg, nil
}
