package utils

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from the given .env files, later files
// taking precedence, and returns the resulting process environment as a map
func LoadEnv(files ...string) map[string]string {
	config := make(map[string]string)

	// Load each file in order
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err != nil {
				log.Printf("[UTILS]: Warning, could not load %s: %v", file, err)
			}
		}
	}

	// Read all environment variables into map
	for _, env := range os.Environ() {
		if key, value, ok := strings.Cut(env, "="); ok && key != "" {
			config[key] = value
		}
	}

	return config
}
