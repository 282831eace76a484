package config

import (
	"time"

	"github.com/bwise1/snapguide_api/internal/logging"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	// Dsn selects PostgreSQL. When empty the service runs on the in-memory store.
	Dsn        string        `env:"DSN"`
	DBTimeout  time.Duration `env:"DB_TIMEOUT" envDefault:"3s"`
	DBMaxConns int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns int32         `env:"DB_MIN_CONNS" envDefault:"5"`

	CacheBackend      string        `env:"CACHE_BACKEND" envDefault:"memory"`
	CacheTTL          time.Duration `env:"CACHE_TTL" envDefault:"30m"`
	CacheDir          string        `env:"CACHE_DIR"`
	CacheKeyPrecision int           `env:"CACHE_KEY_PRECISION" envDefault:"6"`
	CacheTimeout      time.Duration `env:"CACHE_TIMEOUT" envDefault:"250ms"`
	CacheMaxBytes     int64         `env:"CACHE_MAX_BYTES" envDefault:"67108864"`

	NearbyStrategy string `env:"NEARBY_STRATEGY" envDefault:"single"`

	JwtSecret string `env:"JWT_SECRET"`

	StadiaAPIKey    string        `env:"STADIA_API_KEY"`
	StadiaBaseURL   string        `env:"STADIA_BASE_URL" envDefault:"https://api.stadiamaps.com"`
	GeocoderTimeout time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"5s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

func New() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		logging.Debug().Err(loadErr).Msg("[Env]: unable to load .env file")
	}

	cfg, err := Parse()
	if err != nil {
		logging.Error().Err(err).Msg("[Env]: failed to parse environment variables")
	}
	return cfg
}

// Parse reads the environment without touching .env files.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}
