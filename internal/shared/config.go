package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	SourceFile  = "file"
	SourceMySQL = "mysql"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	HTTPTimeout time.Duration

	ArtifactSource string
	ArtifactPath   string
	MySQLDSN       string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	LowSample   int
	EstimateRPS float64

	ImportWorkers   int
	ImportBatchSize int
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first; real environment variables win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		HTTPTimeout: time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,

		ArtifactSource: env("ARTIFACT_SOURCE", SourceFile),
		ArtifactPath:   env("ARTIFACT_PATH", "rent_model.json"),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/rent?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		RedisPass: env("REDIS_PASSWORD", ""),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		LowSample:   atoi("LOW_SAMPLE_THRESHOLD", 5),
		EstimateRPS: atof("ESTIMATE_RPS", 50),

		ImportWorkers:   atoi("IMPORT_WORKERS", 8),
		ImportBatchSize: atoi("IMPORT_BATCH_SIZE", 500),
	}
	if c.ArtifactSource != SourceFile && c.ArtifactSource != SourceMySQL {
		log.Warn().Str("source", c.ArtifactSource).Msg("unknown ARTIFACT_SOURCE, using file")
		c.ArtifactSource = SourceFile
	}
	if c.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty, estimate cache disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
	}
	return def
}
