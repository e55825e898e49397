package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config func to get env value from key
func Config(key string) string {
	// load .env file
	err := godotenv.Load(".env")
	if err != nil {
		return os.Getenv(key)
	}
	return os.Getenv(key)
}
