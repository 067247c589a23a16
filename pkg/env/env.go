// Package env has the one lookup helper used before config is loaded.
package env

import "os"

// Get returns the value of the environment variable, or fallback when unset
// or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
