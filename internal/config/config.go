package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI           string
	DBName             string
	ServiceJWTSecret   string
	ReferenceDataPath  string
	ResolveQueryBudget int
	SearchLimit        int
	LookupTimeout      time.Duration
	SessionTTL         time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:           getEnvOrDefault("MONGO_URI", ""),
		DBName:             getEnvOrDefault("DB_NAME", "mercado"),
		ServiceJWTSecret:   getEnvOrDefault("SERVICE_JWT_SECRET", ""),
		ReferenceDataPath:  getEnvOrDefault("REFERENCE_DATA_PATH", "config/reference.yaml"),
		ResolveQueryBudget: getIntEnv("RESOLVE_QUERY_BUDGET", 3),
		SearchLimit:        getIntEnv("SEARCH_LIMIT", 15),
		LookupTimeout:      getDurationEnv("LOOKUP_TIMEOUT_SECONDS", 4, time.Second),
		SessionTTL:         getDurationEnv("SESSION_TTL_MINUTES", 30, time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
