// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string
	JWTSecretKey string
	DatabasePath string

	BhashiniAPIKey  string
	BhashiniBaseURL string

	// BotServiceURL selects the remote bot responder; empty means the local
	// knowledge responder answers.
	BotServiceURL string
	WeatherURL    string

	AIAPIKey           string
	AIBaseURL          string
	CompletionModel    string
	EmbeddingModelName string

	PineconeAPIKey    string
	PineconeIndexHost string
	PineconeNamespace string
	RetrievalTopK     int

	Environment string
}

// devGatewayURL is the default language and weather gateway outside
// production, where the upstream backend serves both surfaces locally.
const devGatewayURL = "http://localhost:8000"

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		JWTSecretKey: getEnv("JWT_SECRET_KEY", ""),
		DatabasePath: getEnv("DATABASE_PATH", "agrisaarthi.db"),

		BhashiniAPIKey:  getEnv("BHASHINI_API_KEY", ""),
		BhashiniBaseURL: getEnv("BHASHINI_BASE_URL", ""),

		BotServiceURL: getEnv("BOT_SERVICE_URL", ""),
		WeatherURL:    getEnv("WEATHER_SERVICE_URL", ""),

		AIAPIKey:           getEnv("AI_API_KEY", ""),
		AIBaseURL:          getEnv("AI_BASE_URL", ""),
		CompletionModel:    getEnv("COMPLETION_MODEL", ""),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-3-small"),

		PineconeAPIKey:    getEnv("PINECONE_API_KEY", ""),
		PineconeIndexHost: getEnv("PINECONE_INDEX_HOST", ""),
		PineconeNamespace: getEnv("PINECONE_NAMESPACE", "agronomy"),
		RetrievalTopK:     getEnvAsInt("RAG_TOPK", 5),

		Environment: env,
	}

	// Outside production the gateways default to the local backend so a
	// bare checkout starts without a .env file.
	if strings.ToLower(env) != "production" {
		if cfg.BhashiniBaseURL == "" {
			cfg.BhashiniBaseURL = devGatewayURL
		}
		if cfg.WeatherURL == "" {
			cfg.WeatherURL = devGatewayURL
		}
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		missing := []string{}
		if cfg.JWTSecretKey == "" {
			missing = append(missing, "JWT_SECRET_KEY")
		}
		if cfg.BhashiniBaseURL == "" {
			missing = append(missing, "BHASHINI_BASE_URL")
		}
		if cfg.WeatherURL == "" {
			missing = append(missing, "WEATHER_SERVICE_URL")
		}
		if len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// RetrievalEnabled reports whether the knowledge index collaborators are
// configured.
func (c *Config) RetrievalEnabled() bool {
	return c.PineconeAPIKey != "" && c.PineconeIndexHost != ""
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}
