package adapt

// Legacy key spellings rewritten everywhere in the tree. Keys that collide
// with a canonical name at another depth (for example "city" and "name",
// which are canonical inside addresses and sections) are handled by the
// top-level table instead.
var legacyKeys = map[string]string{
	"patterns":           "citation_patterns",
	"citation_formats":   "citation_patterns",
	"pattern":            "regex",
	"agency":             "section_id",
	"agencies":           "sections",
	"departments":        "sections",
	"mailing_address":    "appeal_mail_address",
	"mail_address":       "appeal_mail_address",
	"address":            "appeal_mail_address",
	"phone_confirmation": "phone_policy",
	"deadline_days":      "appeal_deadline_days",
	"appeal_window_days": "appeal_deadline_days",
	"tz":                 "timezone",
	"zip_code":           "zip",
	"zipcode":            "zip",
	"postal_code":        "zip",
	"address_line1":      "address1",
	"address_line2":      "address2",
	"examples":           "example_numbers",
	"example_citations":  "example_numbers",
	"appeal_url":         "online_appeal_url",
}

// Legacy spellings only recognized at the document root, where nothing
// canonical can collide with them.
var legacyTopKeys = map[string]string{
	"city":            "city_id",
	"id":              "city_id",
	"jurisdiction":    "city_id",
	"jurisdiction_id": "city_id",
	"name":            "display_name",
	"city_name":       "display_name",
	"kind":            "jurisdiction_kind",
	"type":            "jurisdiction_kind",
	"phone":           "phone_policy",
}

// normalizeNames rewrites legacy key spellings to canonical names at every
// nesting depth. When both the legacy and the canonical key are present the
// canonical one wins and the legacy key is dropped.
func normalizeNames(doc map[string]any) map[string]any {
	out := normalizeTree(doc).(map[string]any)
	for legacy, canonical := range legacyTopKeys {
		v, ok := out[legacy]
		if !ok {
			continue
		}
		delete(out, legacy)
		if _, exists := out[canonical]; !exists {
			out[canonical] = v
		}
	}
	return out
}

func normalizeTree(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		// Canonical keys first so they always win over a legacy twin,
		// regardless of map iteration order.
		for k, val := range t {
			if _, isLegacy := legacyKeys[k]; !isLegacy {
				out[k] = normalizeTree(val)
			}
		}
		for k, val := range t {
			canonical, isLegacy := legacyKeys[k]
			if !isLegacy {
				continue
			}
			if _, exists := out[canonical]; exists {
				continue
			}
			out[canonical] = normalizeTree(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeTree(val)
		}
		return out
	default:
		return v
	}
}
