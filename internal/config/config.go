package config

import (
	"os"
	"strconv"
)

type Config struct {
	ServerAddress string

	// MongoURI empty selects the in-memory stores (local dev, tests).
	MongoURI string
	MongoDB  string
	DataDir  string

	// AuthMode "firebase" verifies tokens remotely; "jwt" verifies
	// HS256 tokens locally for development.
	AuthMode                string
	JWTSecret               string
	FirebaseProjectID       string
	FirebaseCredentialsJSON string

	SuggestionPoolSize int64
}

func Load() *Config {
	return &Config{
		ServerAddress:           getEnv("SERVER_ADDRESS", ":8080"),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDB:                 getEnv("MONGO_DB", "wanderlink"),
		DataDir:                 getEnv("DATA_DIR", "./data"),
		AuthMode:                getEnv("AUTH_MODE", "firebase"),
		JWTSecret:               getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		SuggestionPoolSize:      getEnvInt64("SUGGESTION_POOL_SIZE", 500),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
