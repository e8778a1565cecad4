package adapt

import (
	"fmt"
	"strings"

	citeroute "github.com/recourselabs/citeroute"
	"github.com/recourselabs/citeroute/schema"
)

// autofix applies one deterministic repair per invariant violation, in the
// order validation reported them, and returns a warning per applied fix.
// Violations it has no repair for are left alone; re-validation keeps them as
// hard errors.
func autofix(doc map[string]any, violations citeroute.Issues) citeroute.Issues {
	var warns citeroute.Issues
	for _, v := range violations {
		fix, ok := applyFix(doc, v)
		if !ok {
			continue
		}
		params := map[string]any{"fix": fix}
		for k, val := range v.Params {
			params[k] = val
		}
		warns = append(warns, citeroute.Issue{
			Path:    v.Path,
			Code:    v.Code,
			Message: fmt.Sprintf("auto-fixed: %s", v.Message),
			Params:  params,
		})
	}
	return warns
}

// applyFix mutates doc to satisfy one violation and returns the value it
// installed. The second return is false when no repair exists.
func applyFix(doc map[string]any, v citeroute.Issue) (any, bool) {
	switch v.Code {
	case citeroute.CodeMissingField:
		switch v.Path {
		case "/city_id":
			doc["city_id"] = placeholderID
			return placeholderID, true
		case "/display_name":
			name := placeholderName
			if id, ok := getString(doc, "city_id"); ok && id != "" && id != placeholderID {
				name = titleize(id)
			}
			doc["display_name"] = name
			return name, true
		case "/online_appeal_url":
			doc["online_appeal_available"] = false
			return false, true
		}
		return nil, false

	case citeroute.CodeNoPatterns:
		ensureDefaultPattern(doc)
		return schema.FallbackCitationRegex, true

	case citeroute.CodeInvalidRegex:
		var repl string
		if strings.HasSuffix(v.Path, "/phone_format_regex") {
			repl = defaultPhoneRegex
		} else {
			repl = schema.FallbackCitationRegex
		}
		if !setAtPointer(doc, v.Path, repl) {
			return nil, false
		}
		return repl, true

	case citeroute.CodeDanglingSection:
		id, _ := v.Params["section_id"].(string)
		if id == "" {
			return nil, false
		}
		// A dangling routes_elsewhere target gets a missing-address override
		// so resolution surfaces an explicit incompleteness instead of
		// inheriting the forwarding address and cycling.
		missingAddr := strings.HasSuffix(v.Path, "/routes_to_section_id")
		synthesizeSection(doc, id, missingAddr)
		return id, true

	case citeroute.CodeIncompleteAddr:
		field, _ := v.Params["field"].(string)
		fill, ok := addressFieldDefault(field)
		if !ok || !setAtPointer(doc, v.Path, fill) {
			return nil, false
		}
		return fill, true

	case citeroute.CodeRoutingIncomplete:
		if !setAtPointer(doc, v.Path, string(schema.RouteDirect)) {
			return nil, false
		}
		return string(schema.RouteDirect), true

	case citeroute.CodePhoneIncomplete:
		field, _ := v.Params["field"].(string)
		fill, ok := phoneFieldDefault(field)
		if !ok || !setAtPointer(doc, v.Path, fill) {
			return nil, false
		}
		return fill, true

	case citeroute.CodeInvalidTimezone:
		doc["timezone"] = schema.DefaultTimezone
		return schema.DefaultTimezone, true
	}
	return nil, false
}

func addressFieldDefault(field string) (string, bool) {
	switch field {
	case "zip":
		return "00000", true
	case "state":
		return "CA", true
	case "country":
		return "USA", true
	case "city", "address1":
		return "Unknown", true
	}
	return "", false
}

func phoneFieldDefault(field string) (any, bool) {
	switch field {
	case "phone_format_regex":
		return defaultPhoneRegex, true
	case "confirmation_message":
		return defaultPhoneMessage, true
	case "confirmation_deadline_hours":
		return defaultPhoneDeadlineHours, true
	case "phone_number_examples":
		return []any{defaultPhoneExample}, true
	}
	return nil, false
}

// ensureDefaultPattern guarantees the document has at least one pattern and a
// section for it to land on.
func ensureDefaultPattern(doc map[string]any) {
	synthesizeSection(doc, schema.DefaultSectionID, false)
	patterns, _ := getSlice(doc, "citation_patterns")
	doc["citation_patterns"] = append(patterns, any(map[string]any{
		"regex":       schema.FallbackCitationRegex,
		"section_id":  schema.DefaultSectionID,
		"description": "default pattern",
		"confidence":  "low",
	}))
}

func synthesizeSection(doc map[string]any, id string, missingAddr bool) {
	sections, ok := getMap(doc, "sections")
	if !ok {
		sections = map[string]any{}
		doc["sections"] = sections
	}
	if _, exists := sections[id]; exists {
		return
	}
	sec := map[string]any{
		"section_id":   id,
		"name":         titleize(id),
		"routing_rule": string(schema.RouteDirect),
	}
	if missingAddr {
		sec["appeal_mail_address"] = map[string]any{"status": string(schema.AddressMissing)}
	}
	sections[id] = sec
}
