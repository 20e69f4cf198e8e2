package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type Config struct {
	Env  string
	Port int

	StoreDriver   string
	DBURL         string
	MongoURI      string
	MongoDatabase string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	AuthRateLimit  int
	AuthRateWindow time.Duration

	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	ProofVerifierURL     string
	ProofVerifierTimeout time.Duration

	OTLPEndpoint string
}

// Load reads configuration from the environment, after merging an optional
// .env file. Every problem is reported, not just the first.
func Load() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	var errs []error
	intVar := func(key string, fallback int) int {
		n, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}

	cfg := Config{
		Env:                  getEnv("APP_ENV", "dev"),
		Port:                 intVar("PORT", 8080),
		StoreDriver:          strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DBURL:                getEnv("DATABASE_URL", buildDBURL()),
		MongoURI:             getEnv("MONGODB_URI", ""),
		MongoDatabase:        getEnv("MONGODB_DATABASE", "civicchain"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTTTL:               time.Duration(intVar("JWT_TTL_HOURS", 24)) * time.Hour,
		BcryptCost:           intVar("BCRYPT_COST", 12),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              intVar("REDIS_DB", 0),
		AuthRateLimit:        intVar("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:       time.Duration(intVar("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,
		CORSAllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		MaxBodyBytes:         int64(intVar("MAX_BODY_BYTES", 10<<20)),
		ProofVerifierURL:     getEnv("PROOF_VERIFIER_URL", ""),
		ProofVerifierTimeout: time.Duration(intVar("PROOF_VERIFIER_TIMEOUT_MS", 3000)) * time.Millisecond,
		OTLPEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}

	if cfg.AuthRateLimit < 1 {
		errs = append(errs, fmt.Errorf("AUTH_RATE_LIMIT must be at least 1, got %d", cfg.AuthRateLimit))
	}
	if cfg.AuthRateWindow <= 0 {
		errs = append(errs, fmt.Errorf("AUTH_RATE_WINDOW_SECONDS must be positive, got %s", cfg.AuthRateWindow))
	}

	switch cfg.StoreDriver {
	case DriverPostgres, DriverMemory:
	case DriverMongo:
		if cfg.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required when STORE_DRIVER=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of postgres, mongo, memory", cfg.StoreDriver))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "civicchain")
	pass := getEnv("DB_PASSWORD", "civicchain")
	name := getEnv("DB_NAME", "civicchain")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %q is not an integer", key, v)
	}

	return num, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
