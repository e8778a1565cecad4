package adapt

import (
	"fmt"
	"sort"
	"strings"

	citeroute "github.com/recourselabs/citeroute"
	"github.com/recourselabs/citeroute/schema"
)

// transformFields repairs per-field shapes in place and returns one warning
// per repair. It leaves anything already canonical untouched.
func transformFields(doc map[string]any) citeroute.Issues {
	var warns citeroute.Issues

	warns = append(warns, transformAuthority(doc)...)
	warns = append(warns, transformSections(doc)...)
	warns = append(warns, transformAddressAt(doc, "appeal_mail_address", "/appeal_mail_address")...)
	warns = append(warns, transformPhoneAt(doc, "phone_policy", "/phone_policy")...)
	warns = append(warns, transformPatterns(doc)...)

	if sections, ok := getMap(doc, "sections"); ok {
		ids := sortedKeys(sections)
		for _, id := range ids {
			sec, ok := sections[id].(map[string]any)
			if !ok {
				continue
			}
			base := "/sections/" + id
			warns = append(warns, transformAddressAt(sec, "appeal_mail_address", base+"/appeal_mail_address")...)
			warns = append(warns, transformPhoneAt(sec, "phone_policy", base+"/phone_policy")...)
		}
	}
	return warns
}

// transformAddressAt rewrites a bare-string address into a Complete record
// with placeholder city/state/zip, and infers a missing status discriminant.
func transformAddressAt(parent map[string]any, key, path string) citeroute.Issues {
	v, ok := parent[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		parent[key] = map[string]any{
			"status":   string(schema.AddressComplete),
			"address1": t,
			"city":     "Unknown",
			"state":    "CA",
			"zip":      "00000",
			"country":  "USA",
		}
		return citeroute.Issues{citeroute.IssueAt(path, citeroute.CodeInvalidType,
			"address given as a bare string; expanded to a complete record with placeholder city/state/zip",
			map[string]any{"address1": t})}
	case map[string]any:
		if _, has := getString(t, "status"); has {
			return nil
		}
		status := inferAddressStatus(t)
		t["status"] = string(status)
		return citeroute.Issues{citeroute.IssueAt(path+"/status", citeroute.CodeMissingField,
			fmt.Sprintf("address has no status; inferred %q", status),
			map[string]any{"inferred": string(status)})}
	default:
		return nil
	}
}

func inferAddressStatus(addr map[string]any) schema.AddressStatus {
	if s, ok := getString(addr, "routes_to_section_id"); ok && s != "" {
		return schema.AddressRoutesElsewhere
	}
	complete := true
	for _, field := range []string{"address1", "city", "state", "zip", "country"} {
		if s, ok := getString(addr, field); !ok || s == "" {
			complete = false
			break
		}
	}
	if complete {
		return schema.AddressComplete
	}
	return schema.AddressMissing
}

// transformPhoneAt expands a boolean phone policy into the full record.
func transformPhoneAt(parent map[string]any, key, path string) citeroute.Issues {
	b, ok := parent[key].(bool)
	if !ok {
		return nil
	}
	if !b {
		parent[key] = map[string]any{"required": false}
		return nil
	}
	parent[key] = map[string]any{
		"required":                    true,
		"phone_format_regex":          defaultPhoneRegex,
		"confirmation_message":        defaultPhoneMessage,
		"confirmation_deadline_hours": defaultPhoneDeadlineHours,
		"phone_number_examples":       []any{defaultPhoneExample},
	}
	return citeroute.Issues{citeroute.IssueAt(path, citeroute.CodeInvalidType,
		"phone policy given as a bare boolean; expanded to a full record with default format and message", nil)}
}

// transformPatterns rewrites bare-string citation patterns into records bound
// to a deterministic default section.
func transformPatterns(doc map[string]any) citeroute.Issues {
	raw, ok := getSlice(doc, "citation_patterns")
	if !ok {
		return nil
	}
	var warns citeroute.Issues
	target := defaultSectionID(doc)
	for i, entry := range raw {
		s, isStr := entry.(string)
		if !isStr {
			continue
		}
		raw[i] = map[string]any{
			"regex":       s,
			"section_id":  target,
			"description": "imported legacy pattern",
		}
		warns = append(warns, citeroute.Issue{
			Path:    fmt.Sprintf("/citation_patterns/%d", i),
			Code:    citeroute.CodeInvalidType,
			Message: fmt.Sprintf("citation pattern %d given as a bare string; bound to section %q", i, target),
			Params:  map[string]any{"index": i, "section_id": target},
		})
	}
	return warns
}

// transformSections accepts the legacy list-of-sections shape and rekeys it
// into the canonical id-keyed map.
func transformSections(doc map[string]any) citeroute.Issues {
	list, ok := getSlice(doc, "sections")
	if !ok {
		return nil
	}
	out := make(map[string]any, len(list))
	for i, entry := range list {
		sec, isMap := entry.(map[string]any)
		if !isMap {
			continue
		}
		id, _ := getString(sec, "section_id")
		if id == "" {
			id = fmt.Sprintf("section_%d", i+1)
			sec["section_id"] = id
		}
		out[id] = sec
	}
	doc["sections"] = out
	return citeroute.Issues{citeroute.IssueAt("/sections", citeroute.CodeInvalidType,
		"sections given as a list; rekeyed by section_id", nil)}
}

// transformAuthority converts the legacy single-agency shape into one section
// plus a matching citation pattern.
func transformAuthority(doc map[string]any) citeroute.Issues {
	authority, ok := getMap(doc, "authority")
	if !ok {
		return nil
	}
	delete(doc, "authority")

	id := slugify(stringOr(authority, "name", schema.DefaultSectionID))
	section := map[string]any{
		"section_id":   id,
		"name":         stringOr(authority, "name", titleize(id)),
		"routing_rule": string(schema.RouteDirect),
	}
	if addr, has := authority["appeal_mail_address"]; has {
		section["appeal_mail_address"] = addr
	}
	if pp, has := authority["phone_policy"]; has {
		section["phone_policy"] = pp
	}

	sections, has := getMap(doc, "sections")
	if !has {
		sections = map[string]any{}
		doc["sections"] = sections
	}
	if _, exists := sections[id]; !exists {
		sections[id] = section
	}

	pattern := map[string]any{
		"regex":       stringOr(authority, "regex", schema.FallbackCitationRegex),
		"section_id":  id,
		"description": "converted from legacy authority record",
	}
	patterns, _ := getSlice(doc, "citation_patterns")
	doc["citation_patterns"] = append(patterns, any(pattern))

	return citeroute.Issues{citeroute.IssueAt("/authority", citeroute.CodeInvalidType,
		fmt.Sprintf("legacy authority record converted into section %q and a matching pattern", id),
		map[string]any{"section_id": id})}
}

// defaultSectionID picks the section a generated pattern binds to: the first
// declared section in sorted order, or "main" when there are none yet.
func defaultSectionID(doc map[string]any) string {
	sections, ok := getMap(doc, "sections")
	if !ok || len(sections) == 0 {
		return schema.DefaultSectionID
	}
	return sortedKeys(sections)[0]
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringOr(m map[string]any, key, fallback string) string {
	if s, ok := getString(m, key); ok && s != "" {
		return s
	}
	return fallback
}

func slugify(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	if len(fields) == 0 {
		return schema.DefaultSectionID
	}
	return strings.Join(fields, "-")
}
