package env

import "os"

// Get reads an environment variable, returning fallback when it is unset
// or empty.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
