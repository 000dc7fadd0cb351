package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zyn-615/ACM-Transit-Template/internal/platform/database"
)

type Config struct {
	APIPort    string
	LogLevel   string
	LogPretty  bool
	CORSOrigin []string

	StoreBackend string
	StoreDir     string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	// EventsChannel enables the Redis event fan-out when non-empty.
	EventsChannel string

	DataDir      string
	FilesRoot    string
	WatchDataDir bool

	ProbeBackend  string
	ProbeBaseURL  string
	ProbeTimeout  time.Duration
	ProbeCacheTTL time.Duration

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	BackupInterval time.Duration
	BackupDir      string

	GeneratorTemplates string
}

var AppConfig *Config

// Load reads .env (when present) and the environment into AppConfig.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:    getEnv("API_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getEnvAsBool("LOG_PRETTY", false),
		CORSOrigin: getEnvAsList("CORS_ORIGINS", []string{"*"}),

		StoreBackend: getEnv("STORE_BACKEND", "file"),
		StoreDir:     getEnv("STORE_DIR", "./.acm-store"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "acm_transit"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		SQLitePath: getEnv("SQLITE_PATH", "./.acm-store/acm.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_PREFIX", ""),
		EventsChannel: getEnv("REDIS_EVENTS_CHANNEL", ""),

		DataDir:      getEnv("DATA_DIR", "./data"),
		FilesRoot:    getEnv("FILES_ROOT", "."),
		WatchDataDir: getEnvAsBool("WATCH_DATA_DIR", false),

		ProbeBackend:  getEnv("PROBE_BACKEND", "fs"),
		ProbeBaseURL:  getEnv("PROBE_BASE_URL", "http://localhost:8000"),
		ProbeTimeout:  getEnvAsDuration("PROBE_TIMEOUT_MS", 3*time.Second),
		ProbeCacheTTL: getEnvAsDuration("PROBE_CACHE_TTL_MS", 30*time.Second),

		S3Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("S3_BUCKET", "acm-files"),
		S3Region:    getEnv("S3_REGION", ""),
		S3UseSSL:    getEnvAsBool("S3_USE_SSL", false),

		BackupInterval: time.Duration(getEnvAsInt("BACKUP_INTERVAL_MINUTES", 0)) * time.Minute,
		BackupDir:      getEnv("BACKUP_DIR", "./backups"),

		GeneratorTemplates: getEnv("GENERATOR_TEMPLATES", ""),
	}

	AppConfig.DBConnStr = database.ConnStr(
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSslMode,
	)
	return AppConfig
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration reads a millisecond count.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil && value > 0 {
		return time.Duration(value) * time.Millisecond
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
