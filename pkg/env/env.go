// Package env reads the few process settings that live outside the typed
// config, such as PORT and HOSTNAME set by the platform.
package env

import (
	"os"
	"strings"
)

// lookup treats unset and whitespace-only variables alike.
func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func Get(key, fallback string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return fallback
}

// First returns the first set value among keys, or fallback.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if v, ok := lookup(key); ok {
			return v
		}
	}
	return fallback
}
