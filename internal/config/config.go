package config

import (
	"os"
	"strconv"

	"github.com/classtrack/classtrack/internal/constants"
)

type Config struct {
	Database  DatabaseConfig
	Extractor ExtractorConfig
	Matcher   MatcherConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MariaDBDSN   string // alternative MariaDB DSN (e.g., user:pass@tcp(db:3306)/classtrack)
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type ExtractorConfig struct {
	URL string // face extractor service URL, defaults to http://localhost:8000
	Dim int    // expected encoding length, defaults to 128
}

type MatcherConfig struct {
	Threshold float64 // acceptance threshold for face distance (default 0.5)
	UseIndex  bool    // build an in-memory roster index instead of scanning
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean flag.
func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MariaDBDSN:   os.Getenv("MARIADB_DSN"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Extractor: ExtractorConfig{
			URL: os.Getenv("EXTRACTOR_URL"),
			Dim: envInt("FACE_ENCODING_DIM", constants.DefaultEncodingDim),
		},
		Matcher: MatcherConfig{
			Threshold: envFloat("FACE_MATCH_THRESHOLD", constants.DefaultDistanceThreshold),
			UseIndex:  envBool("FACE_MATCH_INDEX"),
		},
	}
}
