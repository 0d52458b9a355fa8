package mssql

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultSchema is used when no schema is configured.
const DefaultSchema = "dbo"

// Config contains SQL Server connection options.
type Config struct {
	URL      string
	Schema   string
	MaxConns int
}

// driverURL returns the URL in the form go-mssqldb accepts: the sqlserver
// scheme, and an application name so profiler sessions are identifiable.
func (c *Config) driverURL() (string, error) {
	raw := c.URL
	if strings.HasPrefix(raw, "mssql:") {
		raw = "sqlserver:" + strings.TrimPrefix(raw, "mssql:")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse connection string: %w", err)
	}
	if u.Scheme != "sqlserver" {
		return "", fmt.Errorf("unexpected scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("connection string has no host")
	}

	query := u.Query()
	if query.Get("app name") == "" {
		query.Set("app name", "ekaya-profiler")
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
