package logging

import (
	"regexp"
	"strings"
)

const (
	// MaxQueryLogLength is the maximum length of a query to log
	MaxQueryLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx in key/value DSNs and URL query strings
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host in URLs; the password may itself contain '@'
	urlCredentialsPattern = regexp.MustCompile(`://[^:/\s]+:[^\s]*@([^@/\s]+)`)

	// Provider API keys (OpenAI "sk-...", Anthropic "sk-ant-...")
	providerKeyPattern = regexp.MustCompile(`sk-[A-Za-z0-9_-]{16,}`)

	// Authorization headers echoed in HTTP errors
	bearerPattern = regexp.MustCompile(`(?i)(bearer|x-api-key:?)\s+[A-Za-z0-9._-]+`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SanitizeConnectionString removes credentials from a database URL or DSN.
// The host is kept so logs still show which server was used.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = urlCredentialsPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@${1}")
	return sanitized
}

// SanitizeError sanitizes error messages that might contain credentials.
// Driver errors often echo the DSN; HTTP errors may echo the API key.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeText(err.Error())
}

// SanitizeText applies every redaction pattern to s.
func SanitizeText(s string) string {
	sanitized := SanitizeConnectionString(s)
	sanitized = providerKeyPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = bearerPattern.ReplaceAllString(sanitized, "${1} "+RedactedText)
	return sanitized
}

// SanitizeQuery collapses whitespace and truncates a SQL statement for logging.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	sanitized := strings.TrimSpace(whitespacePattern.ReplaceAllString(query, " "))
	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return TruncateString(sanitized, MaxQueryLogLength)
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
