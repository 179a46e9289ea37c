// Package engineconfig loads the small set of environment-driven knobs the
// engine's runner binaries need: where to spill sort runs, how big a sort
// chunk is, and how verbosely to log.
package engineconfig

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mmorozov/compgraph/extsort"
)

// Config holds the engine's environment-driven settings.
type Config struct {
	// TempDir is where external-sort run files are written. Defaults to
	// the OS temp directory.
	TempDir string
	// SortChunkRows bounds how many rows a sort holds in memory before
	// spilling a run to disk. Defaults to 65536.
	SortChunkRows int
	// LogLevel is a zerolog level name (debug, info, warn, error).
	// Defaults to "info".
	LogLevel string
}

// Load reads envFile (if non-empty) via godotenv, then layers
// COMPGRAPH_TEMP_DIR, COMPGRAPH_SORT_CHUNK_ROWS and COMPGRAPH_LOG_LEVEL from
// the process environment on top, falling back to defaults for anything
// unset. A missing envFile is not an error: callers that have no .env
// simply run off the ambient environment and defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	return Config{
		TempDir:       getEnv("COMPGRAPH_TEMP_DIR", os.TempDir()),
		SortChunkRows: getIntEnv("COMPGRAPH_SORT_CHUNK_ROWS", 64*1024),
		LogLevel:      getEnv("COMPGRAPH_LOG_LEVEL", "info"),
	}, nil
}

// SortOptions builds the extsort.Options a Graph's Sort/SortWithOptions
// call should run with, carrying this Config's TempDir and SortChunkRows
// through and attaching logger so spill events are actually observable
// instead of going to extsort's default zerolog.Nop().
func (c Config) SortOptions(logger *zerolog.Logger) extsort.Options {
	return extsort.Options{
		ChunkRows: c.SortChunkRows,
		TempDir:   c.TempDir,
		Logger:    logger,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
