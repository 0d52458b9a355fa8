package sqlite

import (
	"fmt"
	"strings"
)

const memoryPath = ":memory:"

// Config is a parsed SQLite location.
type Config struct {
	// Path is the database file, ":memory:", or a "file:" URI passed to the driver unchanged.
	Path  string
	Query string // driver parameters after '?', without the '?'
}

// IsMemory reports whether the database lives in memory.
func (c *Config) IsMemory() bool {
	return c.Path == memoryPath || strings.Contains(c.Query, "mode=memory")
}

// IsURI reports whether Path is a "file:" URI.
func (c *Config) IsURI() bool {
	return strings.HasPrefix(c.Path, "file:")
}

// ParseURL parses sqlite:///relative.db, sqlite:////absolute.db, sqlite://
// (in-memory) and file: URIs.
func ParseURL(dsn string) (*Config, error) {
	cfg := &Config{}

	rest := dsn
	if idx := strings.IndexByte(rest, '?'); idx >= 0 {
		cfg.Query = rest[idx+1:]
		rest = rest[:idx]
	}

	switch {
	case strings.HasPrefix(rest, "file:"):
		cfg.Path = rest
		return cfg, nil
	case strings.HasPrefix(rest, "sqlite:"):
		rest = strings.TrimPrefix(rest, "sqlite:")
	default:
		return nil, fmt.Errorf("not a sqlite URL: %q", dsn)
	}

	if rest != "" && !strings.HasPrefix(rest, "//") {
		return nil, fmt.Errorf("sqlite URL must start with sqlite:// (got %q)", dsn)
	}
	rest = strings.TrimPrefix(rest, "//")
	// The first slash separates the empty host from the path.
	rest = strings.TrimPrefix(rest, "/")

	if rest == "" {
		rest = memoryPath
	}
	cfg.Path = rest
	return cfg, nil
}

// driverDSN returns the DSN handed to modernc.org/sqlite, with the
// connection pinned to read-only queries.
func (c *Config) driverDSN() string {
	params := []string{}
	if c.Query != "" {
		params = append(params, c.Query)
	}
	params = append(params, "_pragma=query_only(1)")
	return c.Path + "?" + strings.Join(params, "&")
}
