package adapt

import (
	"github.com/recourselabs/citeroute/schema"
)

const (
	defaultPhoneRegex         = `^\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}$`
	defaultPhoneMessage       = "A valid phone number is required to confirm this appeal."
	defaultPhoneDeadlineHours = 48
	defaultPhoneExample       = "(555) 555-0100"

	placeholderID   = "unknown-jurisdiction"
	placeholderName = "Unknown Jurisdiction"
)

// injectDefaults fills structural and optional defaults in place. Required
// identity fields (id, display name, patterns) are deliberately not defaulted
// here: their absence must surface as an invariant violation, which strict
// mode reports and lenient mode repairs in the auto-fix stage.
func injectDefaults(doc map[string]any) {
	setDefault(doc, "schema_version", schema.Version)
	setDefault(doc, "jurisdiction_kind", string(schema.KindCity))
	setDefault(doc, "timezone", schema.DefaultTimezone)
	setDefault(doc, "appeal_deadline_days", schema.DefaultAppealDeadlineDays)
	setDefault(doc, "online_appeal_available", false)
	setDefault(doc, "routing_rule", string(schema.RouteDirect))
	setDefault(doc, "sections", map[string]any{})
	setDefault(doc, "appeal_mail_address", map[string]any{"status": string(schema.AddressMissing)})
	setDefault(doc, "phone_policy", map[string]any{"required": false})
	setDefault(doc, "verification", map[string]any{
		"source":           "unverified",
		"confidence_score": 0.0,
		"notes":            "populated with schema defaults",
	})
}

func setDefault(doc map[string]any, key string, value any) {
	if _, ok := doc[key]; !ok {
		doc[key] = value
	}
}
