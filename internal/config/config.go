package config

import (
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	ServerPort     string
	JWTSecret      string
	JWTExpiry      time.Duration
	MigrateOnStart bool
	RateLimitRPS   float64
	RateLimitBurst int

	PlannerURL   string
	PlannerToken string
	SyncTimeout  time.Duration
	ColumnsFile  string
	LogLevel     string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "planner_user"),
		DBPassword:     getEnv("DB_PASSWORD", "planner_pass"),
		DBName:         getEnv("DB_NAME", "planner_db"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry:      time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 30),

		PlannerURL:   getEnv("PLANNER_URL", "http://localhost:8080"),
		PlannerToken: getEnv("PLANNER_TOKEN", ""),
		SyncTimeout:  getEnvDuration("PLANNER_SYNC_TIMEOUT", 10*time.Second),
		ColumnsFile:  getEnv("PLANNER_COLUMNS_FILE", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

// DatabaseURL is the postgres URL used for migrations.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// DSN is the key/value connection string used by gorm.
func (c *Config) DSN() string {
	return "host=" + dsnValue(c.DBHost) + " port=" + dsnValue(c.DBPort) + " user=" + dsnValue(c.DBUser) +
		" password=" + dsnValue(c.DBPassword) + " dbname=" + dsnValue(c.DBName) + " sslmode=disable"
}

// dsnValue quotes v for a libpq key/value string.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil && v > 0 {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return defaultVal
}
