package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full process configuration, read from the environment.
type Config struct {
	Server    Server
	Log       Log
	Database  Database
	Redis     RedisConfig
	Auth      Auth
	Inference Inference
	Geofence  Geofence
	Video     Video
	Kafka     Kafka
	RateLimit RateLimit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"LANDVERIFY_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	// Stage 3 blocks for up to a minute of polling plus upload and analysis.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"5m"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Database is optional; without a URL the in-memory stores are used.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	TxTimeout       time.Duration `env:"DB_TX_TIMEOUT" envDefault:"5s"`
	Migrate         bool          `env:"DB_MIGRATE" envDefault:"true"`
}

// RedisConfig is optional; without a URL attempts are kept in memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	AttemptTTL   time.Duration `env:"ATTEMPT_TTL" envDefault:"24h"`
}

type Auth struct {
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"JWT_ISSUER"`
	JWTAudience   string `env:"JWT_AUDIENCE"`
}

type Inference struct {
	APIKey           string        `env:"GEMINI_API_KEY"`
	BaseURL          string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	Model            string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	HTTPTimeout      time.Duration `env:"GEMINI_HTTP_TIMEOUT" envDefault:"120s"`
	RetryMax         int           `env:"GEMINI_RETRY_MAX" envDefault:"2"`
	ExtractTimeout   time.Duration `env:"EXTRACT_TIMEOUT" envDefault:"90s"`
	BreakerThreshold int           `env:"GEMINI_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"GEMINI_BREAKER_COOLDOWN" envDefault:"30s"`
}

type Geofence struct {
	RadiusKm       float64       `env:"GEOFENCE_RADIUS_KM" envDefault:"2.0"`
	NominatimURL   string        `env:"NOMINATIM_URL" envDefault:"https://nominatim.openstreetmap.org"`
	UserAgent      string        `env:"NOMINATIM_USER_AGENT" envDefault:"landverify/1.0 (land-verification)"`
	Region         string        `env:"GEOCODE_REGION" envDefault:"Tamil Nadu, India"`
	RegionShort    string        `env:"GEOCODE_REGION_SHORT" envDefault:"Tamil Nadu"`
	RequestsPerSec float64       `env:"GEOCODE_RPS" envDefault:"1"`
	CacheTTL       time.Duration `env:"GEOCODE_CACHE_TTL" envDefault:"24h"`
}

type Video struct {
	PollInterval time.Duration `env:"VIDEO_POLL_INTERVAL" envDefault:"2s"`
	MaxPolls     int           `env:"VIDEO_MAX_POLLS" envDefault:"30"`
	TempDir      string        `env:"VIDEO_TEMP_DIR"`
}

// Kafka is optional; without brokers the audit outbox is not relayed.
type Kafka struct {
	Brokers      []string      `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic   string        `env:"KAFKA_AUDIT_TOPIC" envDefault:"landverify.audit"`
	RelayBatch   int           `env:"OUTBOX_RELAY_BATCH" envDefault:"100"`
	RelayEvery   time.Duration `env:"OUTBOX_RELAY_INTERVAL" envDefault:"2s"`
	Partitions   int32         `env:"KAFKA_AUDIT_PARTITIONS" envDefault:"3"`
	Replications int16         `env:"KAFKA_AUDIT_REPLICATION" envDefault:"1"`
}

// RateLimit bounds how often one seller may call the inference-backed steps.
type RateLimit struct {
	Disabled         bool          `env:"RATE_LIMIT_DISABLED" envDefault:"false"`
	ExtractionLimit  int           `env:"EXTRACTION_LIMIT" envDefault:"30"`
	ExtractionWindow time.Duration `env:"EXTRACTION_WINDOW" envDefault:"1h"`
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from environment variables only.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	if c.Inference.APIKey == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	if c.Geofence.RadiusKm <= 0 {
		return errors.New("GEOFENCE_RADIUS_KM must be positive")
	}
	if c.Video.MaxPolls <= 0 || c.Video.PollInterval <= 0 {
		return errors.New("VIDEO_MAX_POLLS and VIDEO_POLL_INTERVAL must be positive")
	}
	return nil
}
