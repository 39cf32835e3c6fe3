// Package config resolves request settings against environment fallbacks
// and defaults. It never reads or writes files; persistent configuration
// belongs to the caller.
package config

import (
	"os"
	"strings"
	"time"
)

// Environment variables consulted when a request leaves a field empty.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
	EnvProxy   = "HTTPS_PROXY"
)

func ResolveString(val, envKey, defVal string) string {
	if strings.TrimSpace(val) != "" {
		return val
	}
	if envKey != "" {
		if v := os.Getenv(envKey); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return defVal
}

func ResolveInt(val *int, defVal int) int {
	if val != nil {
		return *val
	}
	return defVal
}

func ResolveDuration(val, defVal time.Duration) time.Duration {
	if val > 0 {
		return val
	}
	return defVal
}
