package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port              string
	GinMode           string
	LogLevel          string
	DBDriver          string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	JWTSecret         string
	FrontendOrigin    string
	TrustedProxies    []string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	AuthRatePerMinute int
	AuthRateBurst     int
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DBDriver:          getEnv("DB_DRIVER", "mysql"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBUser:            getEnv("DB_USER", "studyuser"),
		DBPassword:        getEnv("DB_PASSWORD", "studypassword"),
		DBName:            getEnv("DB_NAME", "study_groups"),
		JWTSecret:         getEnv("JWT_SECRET", "default-secret-key-change-me"),
		FrontendOrigin:    getEnv("FRONTEND_ORIGIN", "http://localhost:3000"),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 20),
		AuthRateBurst:     getEnvInt("AUTH_RATE_BURST", 10),
	}
}

// IsDevelopment reports whether error responses may carry stack traces.
func (c *Config) IsDevelopment() bool {
	return c.GinMode != "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable. Unset means an empty list.
func getEnvList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
