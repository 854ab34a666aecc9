package env

import (
	"os"
	"strings"
)

// Prefix namespaces process-level overrides that sit outside envconfig.
const Prefix = "TRIPGATHER_"

// First returns the first non-blank value among keys, or fallback.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return fallback
}

// Get reads TRIPGATHER_<key> before the bare key so a host-level variable
// such as PORT can be overridden for this service alone.
func Get(key, fallback string) string {
	return First(fallback, Prefix+key, key)
}
