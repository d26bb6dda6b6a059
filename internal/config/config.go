package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BusHub    = "hub"
	BusRedis  = "redis"
	BusPubSub = "pubsub"

	StorageGCS   = "gcs"
	StorageLocal = "local"
)

// Config is read once at startup and passed down explicitly.
type Config struct {
	Port string

	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	SQLitePath  string

	JWTSecret string

	// Akun OWNER pertama, dibuat saat startup bila belum ada
	OwnerEmail    string
	OwnerPassword string

	LogLevel  string
	LogFormat string

	RedisAddress string
	EventBus     string
	GCPProject   string
	PubSubTopic  string

	// GCPCredentialsJSON is optional; ADC is used when empty.
	GCPCredentialsJSON string

	StorageProvider string
	GCSBucket       string
	UploadDir       string

	ReturnOutflowPolicy string
	ReconcileMaxRetries int
	SnowflakeNode       int64
	PhoneRegion         string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// .env opsional, env asli tetap menang
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "3000"),
		DBDriver:            strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBName:              getEnv("DB_NAME", "bookstore"),
		DBPort:              getEnv("DB_PORT", "5432"),
		SQLitePath:          getEnv("SQLITE_PATH", "bookstore.db"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		OwnerEmail:          getEnv("OWNER_EMAIL", "admin@example.com"),
		OwnerPassword:       getEnv("OWNER_PASSWORD", "admin12345"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           strings.ToLower(getEnv("LOG_FORMAT", "json")),
		RedisAddress:        os.Getenv("REDIS_ADDRESS"),
		EventBus:            strings.ToLower(getEnv("EVENT_BUS", BusHub)),
		GCPProject:          os.Getenv("GCP_PROJECT"),
		PubSubTopic:         getEnv("PUBSUB_TOPIC", "bookstore-records"),
		GCPCredentialsJSON:  os.Getenv("GCP_CREDENTIALS_JSON"),
		StorageProvider:     strings.ToLower(getEnv("STORAGE_PROVIDER", StorageLocal)),
		GCSBucket:           os.Getenv("GCS_BUCKET"),
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
		ReturnOutflowPolicy: getEnv("RETURN_OUTFLOW_POLICY", "overpayment"),
		PhoneRegion:         strings.ToUpper(getEnv("PHONE_REGION", "ID")),
	}

	var err error
	if cfg.ReconcileMaxRetries, err = getInt("RECONCILE_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	node, err := getInt("SNOWFLAKE_NODE", 1)
	if err != nil {
		return nil, err
	}
	cfg.SnowflakeNode = int64(node)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	switch c.EventBus {
	case BusHub:
	case BusRedis:
		if c.RedisAddress == "" {
			return fmt.Errorf("EVENT_BUS=redis needs REDIS_ADDRESS")
		}
	case BusPubSub:
		if c.GCPProject == "" {
			return fmt.Errorf("EVENT_BUS=pubsub needs GCP_PROJECT")
		}
	default:
		return fmt.Errorf("unknown EVENT_BUS %q", c.EventBus)
	}
	switch c.StorageProvider {
	case StorageLocal:
	case StorageGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("STORAGE_PROVIDER=gcs needs GCS_BUCKET")
		}
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.StorageProvider)
	}
	if c.ReconcileMaxRetries < 1 {
		return fmt.Errorf("RECONCILE_MAX_RETRIES must be at least 1")
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023")
	}
	return nil
}

// PostgresDSN builds the DSN from DB_* when DATABASE_URL is not set.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Jakarta",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
