// Package instance names the running process in startup logs.
package instance

import (
	"os"

	"github.com/angelmondragon/supermarket-backend/pkg/env"
)

var hostname = os.Hostname

// GetID prefers platform-provided worker names, then the OS hostname.
func GetID() string {
	if id := env.First("", "DYNO", "WORKER_ID", "HOSTNAME"); id != "" {
		return id
	}
	if h, err := hostname(); err == nil && h != "" {
		return h
	}
	return "local"
}
