// Package validate is the façade request handlers call: it combines citation
// format checks, registry matching, the legacy fallback classifier, and the
// deadline calculator into one call.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/recourselabs/citeroute/deadline"
	"github.com/recourselabs/citeroute/registry"
	"github.com/recourselabs/citeroute/schema"
)

const (
	minCitationLen = 6
	maxCitationLen = 12
)

var plateRe = regexp.MustCompile(`^[A-Z0-9]{2,8}$`)

// Request is one validation call.
type Request struct {
	Citation string
	// ViolationDate, when set, adds a deadline verdict to the result.
	ViolationDate *time.Time
	// LicensePlate is validated but never fails the citation; problems land
	// in ErrorMessage only.
	LicensePlate string
	// PreferredJurisdictionID, when set and different from the matched
	// jurisdiction, raises the mismatch flag. It never blocks validation.
	PreferredJurisdictionID string
}

// Result is what collaborators read to decide mailing logistics.
type Result struct {
	IsValid bool
	// Citation is the normalized form: separators stripped, uppercased.
	Citation       string
	JurisdictionID string
	SectionID      string
	// Matched is true when the primary matcher resolved the citation;
	// LegacyFallback is true when the fixed table supplied the answer
	// instead.
	Matched              bool
	LegacyFallback       bool
	Deadline             *deadline.Deadline
	JurisdictionMismatch bool
	ErrorMessage         string
}

// Validator is the façade. Construct one with the matcher you mean to use;
// there is no lazily built process-wide instance.
type Validator struct {
	matcher  Matcher
	fallback Matcher
	reg      *registry.Registry
	now      func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithFallback replaces the default legacy fallback matcher. Pass nil to
// disable fallback entirely.
func WithFallback(m Matcher) ValidatorOption {
	return func(v *Validator) { v.fallback = m }
}

// WithClock overrides the clock used for deadline verdicts.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// New builds a Validator. reg may be nil when only the legacy path is
// available; deadline verdicts then use the schema default window.
func New(matcher Matcher, reg *registry.Registry, opts ...ValidatorOption) *Validator {
	v := &Validator{
		matcher:  matcher,
		fallback: NewLegacyPatternMatcher(),
		reg:      reg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the full pipeline: format check, match, fallback, deadline,
// and the preferred-jurisdiction annotation.
func (v *Validator) Validate(ctx context.Context, req Request) Result {
	citation, err := NormalizeCitation(req.Citation)
	if err != nil {
		return Result{Citation: citation, ErrorMessage: err.Error()}
	}
	res := Result{IsValid: true, Citation: citation}

	if v.matcher != nil {
		if m, ok := v.matcher.Match(citation); ok {
			res.Matched = true
			res.JurisdictionID = m.JurisdictionID
			res.SectionID = m.SectionID
		}
	}
	if !res.Matched && v.fallback != nil {
		if m, ok := v.fallback.Match(citation); ok {
			res.Matched = true
			res.LegacyFallback = true
			res.JurisdictionID = m.JurisdictionID
			res.SectionID = m.SectionID
		}
	}

	if req.ViolationDate != nil {
		days := schema.DefaultAppealDeadlineDays
		if v.reg != nil && res.Matched && !res.LegacyFallback {
			if cfg, ok := v.reg.Jurisdiction(res.JurisdictionID); ok && cfg.AppealDeadlineDays > 0 {
				days = cfg.AppealDeadlineDays
			}
		}
		d := deadline.ComputeAt(*req.ViolationDate, days, v.now())
		res.Deadline = &d
	}

	if req.PreferredJurisdictionID != "" && res.Matched &&
		req.PreferredJurisdictionID != res.JurisdictionID {
		res.JurisdictionMismatch = true
	}

	if req.LicensePlate != "" {
		if msg := checkPlate(req.LicensePlate); msg != "" {
			res.ErrorMessage = msg
		}
	}
	return res
}

// NormalizeCitation strips separators, uppercases, and applies the basic
// format rules: length within [6,12], at least one alphanumeric character,
// and not a single repeated character.
func NormalizeCitation(raw string) (string, error) {
	citation := strings.ToUpper(stripSeparators(raw))
	if len(citation) < minCitationLen || len(citation) > maxCitationLen {
		return citation, fmt.Errorf("citation must be %d-%d characters after removing separators, got %d",
			minCitationLen, maxCitationLen, len(citation))
	}
	hasAlnum := false
	for _, r := range citation {
		if 'A' <= r && r <= 'Z' || '0' <= r && r <= '9' {
			hasAlnum = true
			break
		}
	}
	if !hasAlnum {
		return citation, fmt.Errorf("citation must contain at least one letter or digit")
	}
	if repeatedChar(citation) {
		return citation, fmt.Errorf("citation cannot be a single repeated character")
	}
	return citation, nil
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '/':
			return -1
		}
		return r
	}, s)
}

func repeatedChar(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return len(s) > 0
}

func checkPlate(plate string) string {
	normalized := strings.ToUpper(stripSeparators(plate))
	if !plateRe.MatchString(normalized) {
		return fmt.Sprintf("license plate %q does not look valid; the appeal can proceed but verify the plate", plate)
	}
	return ""
}
