package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// CollectionPath is the application-wide collection the client syncs
// against. It doubles as the server's WebSocket route.
const CollectionPath = "todos"

// Config is the env-driven runtime configuration for both binaries.
type Config struct {
	// Client
	ServerURL string // WebSocket endpoint of the sync server
	Local     bool   // use the JSON-file store instead of a server

	// Server
	Addr    string
	DataDir string

	LogLevel string
}

// Load reads an optional .env file, then the environment. Missing values
// fall back to defaults usable out of the box against a local listad.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		ServerURL: getEnv("LISTA_SERVER_URL", "ws://localhost:8090/"+CollectionPath),
		Local:     getEnv("LISTA_LOCAL", "") == "true",
		Addr:      getEnv("LISTAD_ADDR", ":8090"),
		DataDir:   getEnv("LISTAD_DATA_DIR", "."),
		LogLevel:  getEnv("LISTA_LOG_LEVEL", "info"),
	}
}

// StateDir is where the client keeps its per-user state (session, display
// name, logs). LISTA_HOME overrides the default ~/.lista.
func StateDir() (string, error) {
	if dir := os.Getenv("LISTA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".lista"), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
