// File: cmd/diagnostic/main.go
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/agrisaarthi/agrisaarthi/internal/repository/clientstate"
	"github.com/agrisaarthi/agrisaarthi/internal/services"
)

// Connectivity check for the external services: the Bhashini gateway and the
// weather advisory endpoint. Run it from the project root with a .env file.
func main() {
	log.Println("--- Running external service diagnostics ---")

	if err := godotenv.Load(".env"); err != nil {
		log.Fatalf("FATAL: Error loading .env file. Make sure it exists at the project root. Error: %v", err)
	}

	bhashiniKey := os.Getenv("BHASHINI_API_KEY")
	bhashiniBase := getEnvOrFatal("BHASHINI_BASE_URL")
	weatherBase := getEnvOrFatal("WEATHER_SERVICE_URL")

	logger := services.NewLogger("diagnostic")
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	bridge, err := services.NewBhashiniService(bhashiniKey, bhashiniBase, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to build Bhashini service: %v", err)
	}

	start := time.Now()
	translated, err := bridge.Translate(ctx, "Hello farmer", "en", "hi")
	if err != nil {
		log.Fatalf("Translation check errored: %v", err)
	}
	log.Printf("Translation check: %q -> %q (%v)", "Hello farmer", translated, time.Since(start))
	if translated == "Hello farmer" {
		log.Println("WARNING: translation returned the original text; the gateway may be unreachable")
	}

	weather := services.NewWeatherService(weatherBase, noopState{}, logger)
	start = time.Now()
	advisory, err := weather.FetchAdvisory(ctx, "Pune")
	if err != nil {
		log.Fatalf("Weather check failed: %v", err)
	}
	log.Printf("Weather check: %.1f°C, %s (%v)", advisory.Temperature, advisory.Condition, time.Since(start))

	log.Println("--- Diagnostics complete ---")
}

func getEnvOrFatal(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("FATAL: %s not set in environment", key)
	}
	return value
}

// noopState satisfies the state repository without a database; the
// diagnostic has no use for persisted recent locations.
type noopState struct{}

func (noopState) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, clientstate.ErrStateNotFound
}
func (noopState) Put(ctx context.Context, key string, value []byte) error { return nil }
func (noopState) Delete(ctx context.Context, key string) error           { return nil }
