package validate

import "github.com/recourselabs/citeroute/registry"

// Matcher maps a citation string to a jurisdiction and section. The two
// implementations are RegistryMatcher (the loaded configuration index) and
// LegacyPatternMatcher (the fixed built-in table); callers choose one at
// construction time.
type Matcher interface {
	Match(citation string) (registry.Match, bool)
}

// RegistryMatcher adapts a *registry.Registry to the Matcher interface.
type RegistryMatcher struct {
	reg *registry.Registry
}

// NewRegistryMatcher wraps a loaded registry.
func NewRegistryMatcher(reg *registry.Registry) *RegistryMatcher {
	return &RegistryMatcher{reg: reg}
}

// Match delegates to the registry's ordered pattern list.
func (m *RegistryMatcher) Match(citation string) (registry.Match, bool) {
	if m.reg == nil {
		return registry.Match{}, false
	}
	return m.reg.Match(citation)
}
