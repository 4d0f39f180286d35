// Package mcpserver exposes a running engine.Validator as MCP tools over
// stdio, mirroring how the teacher stack exposes its own domain operations.
package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
)

// serverConfig holds configurable server defaults, loaded once at startup
// from SALVE_* environment variables.
type serverConfig struct {
	MaxTimespan    int
	WalkerCacheGap int
	WalkerCacheMax int
}

var cfg = loadConfig()

func loadConfig() *serverConfig {
	return &serverConfig{
		MaxTimespan:    envInt("SALVE_MAX_TIMESPAN", 256),
		WalkerCacheGap: envInt("SALVE_WALKER_CACHE_GAP", 64),
		WalkerCacheMax: envInt("SALVE_WALKER_CACHE_MAX", 128),
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}
