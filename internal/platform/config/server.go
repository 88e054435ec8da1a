// Package config loads process configuration: the API server's from the
// environment, the agenda agent's from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ServerConfig configures the planner API process. Everything is
// deployment-provided through the environment; see cmd/api.
type ServerConfig struct {
	Port     string
	LogLevel string

	// AuthMode selects how requests bind to a user: "dev" trusts the
	// X-Planner-User header, "token" checks bearer tokens against Tokens.
	AuthMode string

	// DevUser is the fallback identity for AuthMode "dev" when the header
	// is absent. Zero means the header is required on every request.
	DevUser int64

	// Tokens maps bearer tokens to user ids for AuthMode "token". Parsed
	// from AUTH_TOKENS as comma-separated "token:userID" pairs.
	Tokens map[string]int64

	// StorageBackend is "memory" or "postgres". Postgres needs DatabaseURL
	// and runs the embedded migrations at boot.
	StorageBackend string
	DatabaseURL    string

	AllowedOrigins []string

	// RateLimitPerSecond drives the per-IP limiter; zero disables it.
	RateLimitPerSecond float64
	RateLimitBurst     int

	// SeedDemo provisions a demo roster and trip at boot. Only honored on
	// the memory backend, which starts empty and has no signup endpoint.
	SeedDemo bool
}

func LoadServerConfigFromEnv() (ServerConfig, error) {
	cfg := ServerConfig{
		Port:           getenv("PORT", "8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		AuthMode:       getenv("AUTH_MODE", "dev"),
		StorageBackend: getenv("STORAGE_BACKEND", "memory"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
	}

	switch cfg.AuthMode {
	case "dev", "token":
	default:
		return ServerConfig{}, fmt.Errorf("AUTH_MODE must be dev or token, got %q", cfg.AuthMode)
	}
	switch cfg.StorageBackend {
	case "memory", "postgres":
	default:
		return ServerConfig{}, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", cfg.StorageBackend)
	}
	if cfg.StorageBackend == "postgres" && cfg.DatabaseURL == "" {
		return ServerConfig{}, fmt.Errorf("STORAGE_BACKEND=postgres requires DATABASE_URL")
	}

	if v := os.Getenv("DEV_USER"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			return ServerConfig{}, fmt.Errorf("DEV_USER must be a non-negative user id, got %q", v)
		}
		cfg.DevUser = id
	}

	if v := os.Getenv("AUTH_TOKENS"); v != "" {
		tokens, err := parseTokenTable(v)
		if err != nil {
			return ServerConfig{}, err
		}
		cfg.Tokens = tokens
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	// Defaults keep the limiter on; RATE_LIMIT_PER_SECOND=0 switches it off.
	perSecond, err := floatEnv("RATE_LIMIT_PER_SECOND", 10)
	if err != nil {
		return ServerConfig{}, err
	}
	burst, err := intEnv("RATE_LIMIT_BURST", 30)
	if err != nil {
		return ServerConfig{}, err
	}
	cfg.RateLimitPerSecond = perSecond
	cfg.RateLimitBurst = burst

	seed, err := boolEnv("SEED_DEMO_DATA", true)
	if err != nil {
		return ServerConfig{}, err
	}
	cfg.SeedDemo = seed

	return cfg, nil
}

// parseTokenTable parses "token:userID" pairs separated by commas, e.g.
// "c2ff…:3,9a1b…:5". Whitespace around pairs is ignored.
func parseTokenTable(raw string) (map[string]int64, error) {
	tokens := make(map[string]int64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tok, idStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("AUTH_TOKENS entry %q is not token:userID", pair)
		}
		tok = strings.TrimSpace(tok)
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil || id <= 0 || tok == "" {
			return nil, fmt.Errorf("AUTH_TOKENS entry %q is not token:userID", pair)
		}
		if _, dup := tokens[tok]; dup {
			return nil, fmt.Errorf("AUTH_TOKENS repeats token %q", tok)
		}
		tokens[tok] = id
	}
	return tokens, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func floatEnv(k string, def float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number, got %q", k, v)
	}
	return f, nil
}

func intEnv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", k, v)
	}
	return n, nil
}

func boolEnv(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", k, v)
	}
	return b, nil
}
