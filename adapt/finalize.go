package adapt

import (
	"fmt"
	"regexp"

	citeroute "github.com/recourselabs/citeroute"
	"github.com/recourselabs/citeroute/schema"
)

// finalize performs the cosmetic last pass: drops patterns whose section no
// longer resolves, blanks empty-string address fields to absent, back-fills
// section defaults, checks pattern examples against their own regexes, and
// stamps the schema version.
func finalize(doc map[string]any) citeroute.Issues {
	var warns citeroute.Issues

	sections, _ := getMap(doc, "sections")

	// Back-fill section identity and routing defaults.
	for _, id := range sortedKeys(sections) {
		sec, ok := sections[id].(map[string]any)
		if !ok {
			continue
		}
		setDefault(sec, "section_id", id)
		setDefault(sec, "name", titleize(id))
		setDefault(sec, "routing_rule", string(schema.RouteDirect))
	}

	// Drop dangling patterns; a document must never leave the adapter with a
	// pattern pointing at nothing.
	patterns, _ := getSlice(doc, "citation_patterns")
	kept := make([]any, 0, len(patterns))
	for i, entry := range patterns {
		p, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		sid, _ := getString(p, "section_id")
		if _, exists := sections[sid]; !exists {
			warns = append(warns, citeroute.Issue{
				Path:    fmt.Sprintf("/citation_patterns/%d", i),
				Code:    citeroute.CodeDanglingSection,
				Message: fmt.Sprintf("dropped citation pattern %d: section %q does not resolve", i, sid),
				Params:  map[string]any{"index": i, "section_id": sid},
			})
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		ensureDefaultPattern(doc)
		kept, _ = getSlice(doc, "citation_patterns")
		warns = append(warns, citeroute.IssueAt("/citation_patterns", citeroute.CodeNoPatterns,
			"no usable citation pattern remained; synthesized the default pattern", nil))
	}
	doc["citation_patterns"] = kept

	// Blank address fields become absent.
	if addr, ok := getMap(doc, "appeal_mail_address"); ok {
		blankToAbsent(addr)
	}
	for _, id := range sortedKeys(sections) {
		if sec, ok := sections[id].(map[string]any); ok {
			if addr, ok := getMap(sec, "appeal_mail_address"); ok {
				blankToAbsent(addr)
			}
		}
	}

	// Example numbers that do not match their own pattern are worth a
	// warning; authors paste these from real citations and a mismatch
	// usually means the regex is wrong, not the example.
	for i, entry := range kept {
		p, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		expr, _ := getString(p, "regex")
		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		examples, _ := getSlice(p, "example_numbers")
		for _, ex := range examples {
			s, ok := ex.(string)
			if !ok || re.MatchString(s) {
				continue
			}
			warns = append(warns, citeroute.Issue{
				Path:    fmt.Sprintf("/citation_patterns/%d/example_numbers", i),
				Code:    citeroute.CodeExampleMismatch,
				Message: fmt.Sprintf("example %q does not match pattern %d", s, i),
				Params:  map[string]any{"index": i, "example": s},
			})
		}
	}

	doc["schema_version"] = schema.Version
	return warns
}

func blankToAbsent(addr map[string]any) {
	for k, v := range addr {
		if k == "status" {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			delete(addr, k)
		}
	}
}
