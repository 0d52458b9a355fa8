// Package masking redacts values before they leave the profiler.
package masking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ekaya-inc/ekaya-profiler/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-profiler/pkg/config"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

// Redacted replaces every value of a blocked column.
const Redacted = config.DefaultRedaction

type rule struct {
	re          *regexp.Regexp
	replacement string
}

// Masker applies column blocking and ordered regex substitutions.
// It is immutable after construction and safe for concurrent use.
type Masker struct {
	blocked map[string]struct{}
	rules   []rule
}

// NewMasker compiles the mask configuration. A malformed pattern or unknown
// flag is reported as a *apperrors.ConfigurationError naming the rule.
func NewMasker(cfg config.MaskConfig) (*Masker, error) {
	m := &Masker{
		blocked: make(map[string]struct{}, len(cfg.Columns)),
		rules:   make([]rule, 0, len(cfg.Rules)),
	}

	for _, col := range cfg.Columns {
		m.blocked[strings.ToLower(col)] = struct{}{}
	}

	for i, r := range cfg.Rules {
		prefix, err := flagPrefix(r.Flags)
		if err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("mask.rules[%d].flags", i), "unknown regex flag", err)
		}
		re, err := regexp.Compile(prefix + r.Pattern)
		if err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("mask.rules[%d].pattern", i), "malformed regex", err)
		}
		m.rules = append(m.rules, rule{re: re, replacement: r.Replacement()})
	}

	return m, nil
}

// flagPrefix converts flag names to an RE2 inline flag group like "(?is)".
func flagPrefix(flags config.RegexFlags) (string, error) {
	var set []byte
	add := func(f byte) {
		for _, existing := range set {
			if existing == f {
				return
			}
		}
		set = append(set, f)
	}

	for _, name := range flags {
		switch strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(name), "re.")) {
		case "I", "IGNORECASE":
			add('i')
		case "M", "MULTILINE":
			add('m')
		case "S", "DOTALL":
			add('s')
		case "":
		default:
			return "", fmt.Errorf("%q (expected IGNORECASE, MULTILINE or DOTALL)", name)
		}
	}

	if len(set) == 0 {
		return "", nil
	}
	return "(?" + string(set) + ")", nil
}

// IsBlocked reports whether column is fully redacted.
func (m *Masker) IsBlocked(column string) bool {
	_, ok := m.blocked[strings.ToLower(column)]
	return ok
}

// Mask returns the display form of v after masking, or nil when v is null.
// Blocked columns always yield Redacted. Otherwise each rule rewrites every
// match in order, so a rule sees the output of the rules before it.
// Replacements are literal.
func (m *Masker) Mask(column string, v models.Value) *string {
	if v.IsNull() {
		return nil
	}
	if m.IsBlocked(column) {
		s := Redacted
		return &s
	}

	s := v.String()
	for _, r := range m.rules {
		s = r.re.ReplaceAllLiteralString(s, r.replacement)
	}
	return &s
}

// MaskAll masks a sequence of values, preserving order and nulls.
func (m *Masker) MaskAll(column string, values []models.Value) []*string {
	out := make([]*string, len(values))
	for i, v := range values {
		out[i] = m.Mask(column, v)
	}
	return out
}
