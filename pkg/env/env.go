// Package env wraps os.Getenv lookups used outside the envconfig-driven
// configuration, mostly for picking the runtime environment at startup.
package env

import "os"

// Get reads an environment variable, falling back when it is unset or empty.
// Empty counts as unset so a blank export cannot blank out a default.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
