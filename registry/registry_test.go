package registry_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recourselabs/citeroute/registry"
	"github.com/recourselabs/citeroute/schema"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const testvilleDoc = `{
	"schema_version": "4.3.0",
	"city_id": "testville",
	"display_name": "Testville",
	"jurisdiction_kind": "city",
	"timezone": "America/Los_Angeles",
	"appeal_deadline_days": 21,
	"online_appeal_available": false,
	"routing_rule": "direct",
	"citation_patterns": [
		{"regex": "^TEST\\d{6}$", "section_id": "main"}
	],
	"appeal_mail_address": {
		"status": "complete",
		"address1": "1 Test Plaza",
		"city": "Testville",
		"state": "CA",
		"zip": "90001",
		"country": "USA"
	},
	"phone_policy": {"required": false},
	"sections": {
		"main": {"section_id": "main", "name": "Main Office", "routing_rule": "direct"}
	},
	"verification": {"source": "test", "confidence_score": 1.0}
}`

func newLoaded(t *testing.T, docs map[string]string) *registry.Registry {
	t.Helper()
	dir := t.TempDir()
	for name, content := range docs {
		writeDoc(t, dir, name, content)
	}
	reg := registry.New(registry.WithLogger(slog.Default()))
	require.NoError(t, reg.Load(dir))
	return reg
}

func TestLoad_EndToEndScenario(t *testing.T) {
	reg := newLoaded(t, map[string]string{"testville.json": testvilleDoc})

	m, ok := reg.Match("TEST123456")
	require.True(t, ok)
	assert.Equal(t, "testville", m.JurisdictionID)
	assert.Equal(t, "main", m.SectionID)

	addr, err := reg.ResolveAddress("testville", "main")
	require.NoError(t, err)
	assert.Equal(t, schema.AddressComplete, addr.Status)
	assert.Equal(t, "1 Test Plaza", addr.Address1)
	assert.Equal(t, "90001", addr.Zip)
}

func TestMatch_NoMatchIsNotAnError(t *testing.T) {
	reg := newLoaded(t, map[string]string{"testville.json": testvilleDoc})
	_, ok := reg.Match("ZZ99")
	assert.False(t, ok)
}

func TestMatch_FirstLoadedWinsOnOverlap(t *testing.T) {
	overlapping := func(id, name string) string {
		return `{
			"schema_version": "4.3.0",
			"city_id": "` + id + `",
			"display_name": "` + name + `",
			"jurisdiction_kind": "city",
			"timezone": "America/Los_Angeles",
			"appeal_deadline_days": 21,
			"online_appeal_available": false,
			"routing_rule": "direct",
			"citation_patterns": [{"regex": "^\\d{8}$", "section_id": "main"}],
			"appeal_mail_address": {"status": "complete", "address1": "1 Plaza", "city": "X", "state": "CA", "zip": "90000", "country": "USA"},
			"phone_policy": {"required": false},
			"sections": {"main": {"section_id": "main", "name": "Main", "routing_rule": "direct"}},
			"verification": {"source": "test", "confidence_score": 1.0}
		}`
	}
	// Documents load in file-name order, so "alpha" registers first even
	// though both patterns match. This is the documented behavior, not a
	// disambiguation guarantee.
	reg := newLoaded(t, map[string]string{
		"a-alpha.json": overlapping("alpha", "Alpha"),
		"b-beta.json":  overlapping("beta", "Beta"),
	})
	m, ok := reg.Match("12345678")
	require.True(t, ok)
	assert.Equal(t, "alpha", m.JurisdictionID)

	// A caller that knows the jurisdiction can scope the match.
	m, ok = reg.MatchIn("12345678", "beta")
	require.True(t, ok)
	assert.Equal(t, "beta", m.JurisdictionID)
}

func TestLoad_OlderSchemaVersionStillLoads(t *testing.T) {
	// A version drift is worth a log line, not a rejection: otherwise a
	// schema bump would take every not-yet-readapted document offline.
	older := `{
		"schema_version": "4.2.0",
		"city_id": "oldtown",
		"display_name": "Oldtown",
		"jurisdiction_kind": "city",
		"timezone": "America/Los_Angeles",
		"appeal_deadline_days": 21,
		"online_appeal_available": false,
		"routing_rule": "direct",
		"citation_patterns": [{"regex": "^OLD\\d{6}$", "section_id": "main"}],
		"appeal_mail_address": {"status": "complete", "address1": "1 Old Rd", "city": "Oldtown", "state": "CA", "zip": "90005", "country": "USA"},
		"phone_policy": {"required": false},
		"sections": {"main": {"section_id": "main", "name": "Main", "routing_rule": "direct"}},
		"verification": {"source": "test", "confidence_score": 1.0}
	}`
	reg := newLoaded(t, map[string]string{"oldtown.json": older})

	require.Equal(t, 1, reg.Len())
	m, ok := reg.Match("OLD123456")
	require.True(t, ok)
	assert.Equal(t, "oldtown", m.JurisdictionID)
}

func TestLoad_AllOrNothing(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "testville.json", testvilleDoc)
	writeDoc(t, dir, "broken.json", `{"city_id": "broken"`)

	reg := registry.New()
	err := reg.Load(dir)
	require.Error(t, err)
	assert.Equal(t, 0, reg.Len(), "partial loads must not be exposed")
}

func TestLoad_ReloadKeepsOldSnapshotOnFailure(t *testing.T) {
	goodDir := t.TempDir()
	writeDoc(t, goodDir, "testville.json", testvilleDoc)
	badDir := t.TempDir()
	writeDoc(t, badDir, "invalid.json", `{"city_id": "x"}`)

	reg := registry.New()
	require.NoError(t, reg.Load(goodDir))
	require.Error(t, reg.Load(badDir))

	// The previously published snapshot still serves.
	_, ok := reg.Match("TEST123456")
	assert.True(t, ok)
	assert.Equal(t, 1, reg.Len())
}

func TestResolveAddress_FollowsRoutesElsewhere(t *testing.T) {
	doc := `{
		"schema_version": "4.3.0",
		"city_id": "routed",
		"display_name": "Routed",
		"jurisdiction_kind": "city",
		"timezone": "America/Los_Angeles",
		"appeal_deadline_days": 21,
		"online_appeal_available": false,
		"routing_rule": "direct",
		"citation_patterns": [{"regex": "^RT\\d{6}$", "section_id": "front"}],
		"appeal_mail_address": {"status": "complete", "address1": "1 Hall", "city": "Routed", "state": "CA", "zip": "90002", "country": "USA"},
		"phone_policy": {"required": false},
		"sections": {
			"front": {
				"section_id": "front", "name": "Front Desk", "routing_rule": "routes_to_section",
				"appeal_mail_address": {"status": "routes_elsewhere", "routes_to_section_id": "processing"}
			},
			"processing": {
				"section_id": "processing", "name": "Processing", "routing_rule": "direct",
				"appeal_mail_address": {"status": "complete", "address1": "2 Annex", "city": "Routed", "state": "CA", "zip": "90003", "country": "USA"}
			}
		},
		"verification": {"source": "test", "confidence_score": 1.0}
	}`
	reg := newLoaded(t, map[string]string{"routed.json": doc})

	addr, err := reg.ResolveAddress("routed", "front")
	require.NoError(t, err)
	assert.Equal(t, "2 Annex", addr.Address1)

	// Root resolution is untouched by section forwarding.
	addr, err = reg.ResolveAddress("routed", "")
	require.NoError(t, err)
	assert.Equal(t, "1 Hall", addr.Address1)
}

func TestResolveAddress_DetectsCycle(t *testing.T) {
	doc := `{
		"schema_version": "4.3.0",
		"city_id": "cyclic",
		"display_name": "Cyclic",
		"jurisdiction_kind": "city",
		"timezone": "America/Los_Angeles",
		"appeal_deadline_days": 21,
		"online_appeal_available": false,
		"routing_rule": "direct",
		"citation_patterns": [{"regex": "^CY\\d{6}$", "section_id": "a"}],
		"appeal_mail_address": {"status": "missing"},
		"phone_policy": {"required": false},
		"sections": {
			"a": {"section_id": "a", "name": "A", "routing_rule": "direct",
				"appeal_mail_address": {"status": "routes_elsewhere", "routes_to_section_id": "b"}},
			"b": {"section_id": "b", "name": "B", "routing_rule": "direct",
				"appeal_mail_address": {"status": "routes_elsewhere", "routes_to_section_id": "a"}}
		},
		"verification": {"source": "test", "confidence_score": 1.0}
	}`
	reg := newLoaded(t, map[string]string{"cyclic.json": doc})

	_, err := reg.ResolveAddress("cyclic", "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrRoutingLoop), "got %v", err)
}

func TestResolveAddress_MissingIsExplicitFailure(t *testing.T) {
	doc := `{
		"schema_version": "4.3.0",
		"city_id": "bare",
		"display_name": "Bare",
		"jurisdiction_kind": "city",
		"timezone": "America/Los_Angeles",
		"appeal_deadline_days": 21,
		"online_appeal_available": false,
		"routing_rule": "direct",
		"citation_patterns": [{"regex": "^BR\\d{6}$", "section_id": "main"}],
		"appeal_mail_address": {"status": "missing"},
		"phone_policy": {"required": false},
		"sections": {"main": {"section_id": "main", "name": "Main", "routing_rule": "direct"}},
		"verification": {"source": "test", "confidence_score": 1.0}
	}`
	reg := newLoaded(t, map[string]string{"bare.json": doc})

	_, err := reg.ResolveAddress("bare", "main")
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrAddressIncomplete), "got %v", err)

	_, err = reg.ResolveAddress("nope", "")
	assert.True(t, errors.Is(err, registry.ErrNoAddress), "got %v", err)
}

func TestValidatePhone(t *testing.T) {
	doc := `{
		"schema_version": "4.3.0",
		"city_id": "phoney",
		"display_name": "Phoney",
		"jurisdiction_kind": "city",
		"timezone": "America/Los_Angeles",
		"appeal_deadline_days": 21,
		"online_appeal_available": false,
		"routing_rule": "direct",
		"citation_patterns": [{"regex": "^PH\\d{6}$", "section_id": "main"}],
		"appeal_mail_address": {"status": "complete", "address1": "1 Way", "city": "Phoney", "state": "CA", "zip": "90004", "country": "USA"},
		"phone_policy": {
			"required": true,
			"phone_format_regex": "\\(?\\d{3}\\)?[\\s.-]?\\d{3}[\\s.-]?\\d{4}",
			"confirmation_message": "We will call to confirm.",
			"confirmation_deadline_hours": 48,
			"phone_number_examples": ["(310) 555-0100"]
		},
		"sections": {"main": {"section_id": "main", "name": "Main", "routing_rule": "direct"}},
		"verification": {"source": "test", "confidence_score": 1.0}
	}`
	reg := newLoaded(t, map[string]string{"phoney.json": doc, "testville.json": testvilleDoc})

	ok, err := reg.ValidatePhone("phoney", "(310) 555-0100", "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.ValidatePhone("phoney", "not-a-phone", "")
	require.Error(t, err)
	assert.False(t, ok)

	// No required policy: anything goes, including garbage and empty input.
	ok, err = reg.ValidatePhone("testville", "", "")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = reg.ValidatePhone("testville", "garbage!!", "main")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOverrideLookups(t *testing.T) {
	reg := newLoaded(t, map[string]string{"testville.json": testvilleDoc})

	rule, ok := reg.RoutingRule("testville", "main")
	require.True(t, ok)
	assert.Equal(t, schema.RouteDirect, rule)

	pp, ok := reg.PhonePolicy("testville", "")
	require.True(t, ok)
	assert.False(t, pp.Required)

	_, ok = reg.RoutingRule("testville", "ghost")
	assert.False(t, ok)
	_, ok = reg.PhonePolicy("nope", "")
	assert.False(t, ok)
}

func TestMetrics_CountLoadsAndMatches(t *testing.T) {
	m := registry.NewMetrics(prometheus.NewRegistry())
	dir := t.TempDir()
	writeDoc(t, dir, "testville.json", testvilleDoc)

	reg := registry.New(registry.WithMetrics(m))
	require.NoError(t, reg.Load(dir))

	reg.Match("TEST123456")
	reg.Match("nomatch")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.DocumentsLoaded))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.MatchHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.MatchMisses))

	// Scoped matches count the same way as global ones.
	reg.MatchIn("TEST123456", "testville")
	reg.MatchIn("TEST123456", "elsewhere")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.MatchHits))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.MatchMisses))
}
