package validate

import (
	"regexp"

	"github.com/recourselabs/citeroute/registry"
)

// legacyEntry is one row of the fixed classifier table that predates the
// configuration registry.
type legacyEntry struct {
	re             *regexp.Regexp
	jurisdictionID string
	sectionID      string
	agency         string
	confidence     string
}

// The table is ordered most-specific first; like the registry, the first
// match wins. Entries are format-based guesses, which is all the legacy path
// ever was.
var legacyTable = []legacyEntry{
	{regexp.MustCompile(`^9\d{8}$`), "san-francisco", "sfmta", "SFMTA Citations", "high"},
	{regexp.MustCompile(`^1\d{9}$`), "los-angeles", "ladot", "LADOT Parking Violations Bureau", "medium"},
	{regexp.MustCompile(`^[A-Z]{2}\d{6,8}$`), "california", "chp", "California Highway Patrol", "medium"},
	{regexp.MustCompile(`^\d{10}$`), "new-york", "dof", "NYC Department of Finance", "low"},
	{regexp.MustCompile(`^\d{6,9}$`), "generic", "parking", "Municipal Parking Authority", "low"},
	{regexp.MustCompile(`^[A-Z0-9]{6,12}$`), "generic", "citations", "Unknown Issuing Agency", "low"},
}

// LegacyPatternMatcher classifies citations with the fixed table. It needs no
// registry and is the fallback when the registry is unavailable or the format
// is unrecognized.
type LegacyPatternMatcher struct{}

// NewLegacyPatternMatcher returns the table-backed matcher.
func NewLegacyPatternMatcher() *LegacyPatternMatcher {
	return &LegacyPatternMatcher{}
}

// Match returns the first table entry whose pattern matches.
func (*LegacyPatternMatcher) Match(citation string) (registry.Match, bool) {
	for _, e := range legacyTable {
		if e.re.MatchString(citation) {
			return registry.Match{JurisdictionID: e.jurisdictionID, SectionID: e.sectionID}, true
		}
	}
	return registry.Match{}, false
}

// Classify returns the agency guess and confidence alongside the match, for
// callers that surface the legacy result to a user.
func (*LegacyPatternMatcher) Classify(citation string) (agency, confidence string, ok bool) {
	for _, e := range legacyTable {
		if e.re.MatchString(citation) {
			return e.agency, e.confidence, true
		}
	}
	return "", "", false
}
