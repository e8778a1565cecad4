// Package registry loads a directory of schema-compliant jurisdiction
// documents into an in-memory index and answers citation matching, address
// resolution, phone-policy and routing-rule lookups. The index is immutable
// once built; Load publishes a fresh snapshot with one atomic pointer swap,
// so concurrent readers never observe a half-loaded registry.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync/atomic"

	citeroute "github.com/recourselabs/citeroute"
	"github.com/recourselabs/citeroute/internal/docio"
	"github.com/recourselabs/citeroute/schema"
)

var (
	// ErrNotLoaded reports a query against a registry that has never
	// successfully loaded.
	ErrNotLoaded = errors.New("registry: not loaded")
	// ErrNoAddress reports an unknown jurisdiction or section, or a
	// forwarding hop into a section that does not exist.
	ErrNoAddress = errors.New("registry: no address")
	// ErrRoutingLoop reports a routes_elsewhere chain that revisits a
	// section or exceeds the hop bound.
	ErrRoutingLoop = errors.New("registry: address routing loop")
	// ErrAddressIncomplete reports resolution landing on a missing address.
	// Mail dispatch must abort on this, never substitute a default.
	ErrAddressIncomplete = errors.New("registry: address incomplete")
)

// maxRouteHops bounds routes_elsewhere chains. Observed documents forward at
// most once; the bound exists so a bad edit cannot hang resolution.
const maxRouteHops = 4

// Match identifies the jurisdiction and section a citation belongs to.
type Match struct {
	JurisdictionID string
	SectionID      string
}

type compiledPattern struct {
	re             *regexp.Regexp
	jurisdictionID string
	sectionID      string
}

// snapshot is one immutable build of the index.
type snapshot struct {
	byID     map[string]*schema.JurisdictionConfig
	order    []string
	patterns []compiledPattern
}

// Registry is safe for concurrent use. Build one at process start and share
// the reference; there is no process-wide instance.
type Registry struct {
	snap    atomic.Pointer[snapshot]
	log     *slog.Logger
	metrics *Metrics
}

// RegistryOption configures a Registry at construction.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for load and reload reporting.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// New returns an empty registry. Queries fail with ErrNotLoaded (or report no
// match) until the first successful Load.
func New(opts ...RegistryOption) *Registry {
	r := &Registry{log: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads every document in dir, builds a fresh index, and publishes it
// atomically. Any malformed document fails the whole load and leaves the
// previously published snapshot untouched; partial loads are never exposed.
// Calling Load on a live registry is the reload path.
func (r *Registry) Load(dir string) error {
	paths, err := docio.ListDocuments(dir)
	if err != nil {
		r.loadFailed()
		return fmt.Errorf("registry: listing %s: %w", dir, err)
	}

	next := &snapshot{byID: make(map[string]*schema.JurisdictionConfig, len(paths))}
	var iss citeroute.Issues
	for _, path := range paths {
		cfg, fileIssues := loadDocument(path)
		if len(fileIssues) > 0 {
			iss = append(iss, fileIssues...)
			continue
		}
		if _, dup := next.byID[cfg.ID]; dup {
			iss = append(iss, citeroute.IssueAt("/city_id", citeroute.CodeInvalidValue,
				fmt.Sprintf("%s: duplicate jurisdiction id %q", path, cfg.ID),
				map[string]any{"file": path, "city_id": cfg.ID}))
			continue
		}
		if cfg.SchemaVersion != schema.Version {
			r.log.Warn("schema version differs from current",
				"file", path, "version", cfg.SchemaVersion, "want", schema.Version)
		}
		next.byID[cfg.ID] = cfg
		next.order = append(next.order, cfg.ID)
		for _, p := range cfg.CitationPatterns {
			re := regexp.MustCompile(p.Regex) // compiles: Validate already checked
			next.patterns = append(next.patterns, compiledPattern{
				re:             re,
				jurisdictionID: cfg.ID,
				sectionID:      p.SectionID,
			})
		}
	}
	if len(iss) > 0 {
		r.loadFailed()
		for _, it := range iss {
			r.log.Warn("document rejected", "issue", it.Code, "detail", it.Message)
		}
		return fmt.Errorf("registry: load failed: %w", iss)
	}

	r.snap.Store(next)
	if r.metrics != nil {
		r.metrics.DocumentsLoaded.Set(float64(len(next.byID)))
		r.metrics.PatternsLoaded.Set(float64(len(next.patterns)))
		r.metrics.ReloadsTotal.Inc()
	}
	r.log.Info("registry loaded",
		"jurisdictions", len(next.byID), "patterns", len(next.patterns))
	return nil
}

func (r *Registry) loadFailed() {
	if r.metrics != nil {
		r.metrics.ReloadFailures.Inc()
	}
}

func loadDocument(path string) (*schema.JurisdictionConfig, citeroute.Issues) {
	doc, err := docio.ReadFile(path)
	if err != nil {
		return nil, citeroute.Issues{{
			Path: "/", Code: citeroute.CodeParseError,
			Message: err.Error(), Cause: err,
		}}
	}
	cfg, err := schema.FromDocument(doc)
	if err != nil {
		return nil, citeroute.Issues{{
			Path: "/", Code: citeroute.CodeParseError,
			Message: path + ": " + err.Error(), Cause: err,
		}}
	}
	if iss := cfg.Validate(); len(iss) > 0 {
		return nil, iss
	}
	return cfg, nil
}

// Match tests the citation against every pattern in load order; the first
// regex match wins. There is no cross-jurisdiction priority and confidence is
// never consulted: a format shared by two jurisdictions resolves to whichever
// document loaded first.
func (r *Registry) Match(citation string) (Match, bool) {
	snap := r.snap.Load()
	if snap == nil {
		return Match{}, false
	}
	for _, p := range snap.patterns {
		if p.re.MatchString(citation) {
			if r.metrics != nil {
				r.metrics.MatchHits.Inc()
			}
			return Match{JurisdictionID: p.jurisdictionID, SectionID: p.sectionID}, true
		}
	}
	if r.metrics != nil {
		r.metrics.MatchMisses.Inc()
	}
	return Match{}, false
}

// MatchIn restricts matching to a single jurisdiction's patterns, still in
// declaration order. Callers with out-of-band knowledge of the jurisdiction
// use this to sidestep cross-jurisdiction format collisions.
func (r *Registry) MatchIn(citation, jurisdictionID string) (Match, bool) {
	snap := r.snap.Load()
	if snap == nil {
		return Match{}, false
	}
	for _, p := range snap.patterns {
		if p.jurisdictionID == jurisdictionID && p.re.MatchString(citation) {
			if r.metrics != nil {
				r.metrics.MatchHits.Inc()
			}
			return Match{JurisdictionID: p.jurisdictionID, SectionID: p.sectionID}, true
		}
	}
	if r.metrics != nil {
		r.metrics.MatchMisses.Inc()
	}
	return Match{}, false
}

// Jurisdiction returns the config for an id.
func (r *Registry) Jurisdiction(id string) (*schema.JurisdictionConfig, bool) {
	snap := r.snap.Load()
	if snap == nil {
		return nil, false
	}
	cfg, ok := snap.byID[id]
	return cfg, ok
}

// IDs returns jurisdiction ids in load order.
func (r *Registry) IDs() []string {
	snap := r.snap.Load()
	if snap == nil {
		return nil
	}
	out := make([]string, len(snap.order))
	copy(out, snap.order)
	return out
}

// Len reports how many jurisdictions are loaded.
func (r *Registry) Len() int {
	snap := r.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.byID)
}

// ResolveAddress resolves the effective mailing address for a jurisdiction
// (and optional section; pass "" for the jurisdiction root), following
// routes_elsewhere forwards until it lands on a terminal address. The result
// is always Complete; anything else is an error the mail path must honor by
// aborting dispatch.
func (r *Registry) ResolveAddress(jurisdictionID, sectionID string) (schema.MailAddress, error) {
	snap := r.snap.Load()
	if snap == nil {
		return schema.MailAddress{}, ErrNotLoaded
	}
	cfg, ok := snap.byID[jurisdictionID]
	if !ok {
		return schema.MailAddress{}, fmt.Errorf("%w: unknown jurisdiction %q", ErrNoAddress, jurisdictionID)
	}
	addr, ok := cfg.EffectiveAddress(sectionID)
	if !ok {
		return schema.MailAddress{}, fmt.Errorf("%w: unknown section %q in %q", ErrNoAddress, sectionID, jurisdictionID)
	}

	visited := map[string]bool{sectionID: true}
	for hops := 0; addr.Forwards(); hops++ {
		if hops >= maxRouteHops {
			return schema.MailAddress{}, fmt.Errorf("%w: more than %d hops in %q", ErrRoutingLoop, maxRouteHops, jurisdictionID)
		}
		target := addr.RoutesToSectionID
		if visited[target] {
			return schema.MailAddress{}, fmt.Errorf("%w: section %q revisited in %q", ErrRoutingLoop, target, jurisdictionID)
		}
		visited[target] = true
		sec, ok := cfg.Sections[target]
		if !ok {
			return schema.MailAddress{}, fmt.Errorf("%w: route target %q missing in %q", ErrNoAddress, target, jurisdictionID)
		}
		if sec.AppealMailAddress != nil {
			addr = *sec.AppealMailAddress
		} else {
			addr = cfg.AppealMailAddress
		}
	}
	if !addr.IsComplete() {
		return schema.MailAddress{}, fmt.Errorf("%w: %q section %q", ErrAddressIncomplete, jurisdictionID, sectionID)
	}
	return addr, nil
}

// PhonePolicy returns the effective phone confirmation policy: the section
// override when present, else the jurisdiction-level policy.
func (r *Registry) PhonePolicy(jurisdictionID, sectionID string) (schema.PhoneConfirmationPolicy, bool) {
	cfg, ok := r.Jurisdiction(jurisdictionID)
	if !ok {
		return schema.PhoneConfirmationPolicy{}, false
	}
	return cfg.EffectivePhonePolicy(sectionID)
}

// RoutingRule returns the effective routing rule with the same override
// semantics as PhonePolicy.
func (r *Registry) RoutingRule(jurisdictionID, sectionID string) (schema.RoutingRule, bool) {
	cfg, ok := r.Jurisdiction(jurisdictionID)
	if !ok {
		return "", false
	}
	return cfg.EffectiveRoutingRule(sectionID)
}

// ValidatePhone checks a phone number against the effective policy. When no
// policy applies, or the policy does not require a phone, any input is
// accepted. Otherwise the number must fully match the policy's format regex.
func (r *Registry) ValidatePhone(jurisdictionID, phone, sectionID string) (bool, error) {
	policy, ok := r.PhonePolicy(jurisdictionID, sectionID)
	if !ok || !policy.Required {
		return true, nil
	}
	re, err := regexp.Compile(anchored(policy.PhoneFormatRegex))
	if err != nil {
		return false, fmt.Errorf("registry: phone format regex for %q: %w", jurisdictionID, err)
	}
	if !re.MatchString(phone) {
		return false, fmt.Errorf("registry: phone %q does not match the required format for %q", phone, jurisdictionID)
	}
	return true, nil
}

// anchored forces a full-string match; the non-capturing group keeps
// expressions that already carry their own ^...$ anchors valid.
func anchored(expr string) string {
	return "^(?:" + expr + ")$"
}
