// Package schema defines the strict, versioned shape of a jurisdiction
// configuration document and the invariants every loaded document must hold.
package schema

import (
	json "github.com/goccy/go-json"
)

// Version is the schema version the registry requires. The adapter stamps it
// onto every document it emits.
const Version = "4.3.0"

// DefaultAppealDeadlineDays applies when a document does not set its own
// appeal window.
const DefaultAppealDeadlineDays = 21

// DefaultTimezone applies when a document does not set its own timezone.
const DefaultTimezone = "America/Los_Angeles"

// FallbackCitationRegex replaces a pattern whose regex does not compile, and
// seeds a document that ends up with no usable pattern at all.
const FallbackCitationRegex = `^[A-Z0-9]{6,12}$`

// DefaultSectionID names the section synthesized when a document carries
// patterns but no sections of its own.
const DefaultSectionID = "main"

// JurisdictionKind classifies the governing body behind a document.
type JurisdictionKind string

const (
	KindCity    JurisdictionKind = "city"
	KindCounty  JurisdictionKind = "county"
	KindState   JurisdictionKind = "state"
	KindFederal JurisdictionKind = "federal"
)

// RoutingRule describes whether a section's mail goes directly to its own
// address or must be redirected elsewhere.
type RoutingRule string

const (
	// RouteDirect resolves the mailing address locally.
	RouteDirect RoutingRule = "direct"
	// RouteToSection requires a non-missing address, either directly or via
	// a routes_elsewhere forward.
	RouteToSection RoutingRule = "routes_to_section"
	// RouteSeparateAddress is an informational marker; resolution still
	// follows the mail address.
	RouteSeparateAddress RoutingRule = "separate_address_required"
)

// AddressStatus discriminates the MailAddress tagged union.
type AddressStatus string

const (
	AddressComplete        AddressStatus = "complete"
	AddressRoutesElsewhere AddressStatus = "routes_elsewhere"
	AddressMissing         AddressStatus = "missing"
)

// MailAddress is a tagged union with exactly one case active, discriminated
// by Status. Complete carries the postal fields, RoutesElsewhere carries only
// the target section id, Missing carries nothing.
type MailAddress struct {
	Status            AddressStatus `json:"status"`
	Department        string        `json:"department,omitempty"`
	Attention         string        `json:"attention,omitempty"`
	Address1          string        `json:"address1,omitempty"`
	Address2          string        `json:"address2,omitempty"`
	City              string        `json:"city,omitempty"`
	State             string        `json:"state,omitempty"`
	Zip               string        `json:"zip,omitempty"`
	Country           string        `json:"country,omitempty"`
	RoutesToSectionID string        `json:"routes_to_section_id,omitempty"`
}

// IsComplete reports whether the address is in the Complete state with every
// required postal field populated.
func (a MailAddress) IsComplete() bool {
	return a.Status == AddressComplete &&
		a.Address1 != "" && a.City != "" && a.State != "" && a.Zip != "" && a.Country != ""
}

// IsMissing reports whether the address is absent. An empty status counts as
// missing so a zero value never masquerades as a usable address.
func (a MailAddress) IsMissing() bool {
	return a.Status == AddressMissing || a.Status == ""
}

// Forwards reports whether the address delegates to another section.
func (a MailAddress) Forwards() bool {
	return a.Status == AddressRoutesElsewhere
}

// CitationPattern binds a citation regex to the section that handles matches.
// Confidence is informational only; it never breaks ties between patterns.
type CitationPattern struct {
	Regex          string   `json:"regex"`
	SectionID      string   `json:"section_id"`
	Description    string   `json:"description,omitempty"`
	ExampleNumbers []string `json:"example_numbers,omitempty"`
	Confidence     string   `json:"confidence,omitempty"`
}

// PhoneConfirmationPolicy describes whether a jurisdiction requires a phone
// number on an appeal, and how to collect it when it does.
type PhoneConfirmationPolicy struct {
	Required                  bool     `json:"required"`
	PhoneFormatRegex          string   `json:"phone_format_regex,omitempty"`
	ConfirmationMessage       string   `json:"confirmation_message,omitempty"`
	ConfirmationDeadlineHours int      `json:"confirmation_deadline_hours,omitempty"`
	PhoneNumberExamples       []string `json:"phone_number_examples,omitempty"`
}

// VerificationMetadata records who verified a document's contents and how
// confident they were.
type VerificationMetadata struct {
	LastUpdated     string  `json:"last_updated,omitempty"`
	Source          string  `json:"source,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"`
	Notes           string  `json:"notes,omitempty"`
	VerifiedBy      string  `json:"verified_by,omitempty"`
}

// Section is a sub-agency within a jurisdiction. Address and phone policy are
// optional overrides; a section inherits the jurisdiction-level values when it
// does not set its own.
type Section struct {
	ID                string                   `json:"section_id"`
	Name              string                   `json:"name"`
	RoutingRule       RoutingRule              `json:"routing_rule"`
	AppealMailAddress *MailAddress             `json:"appeal_mail_address,omitempty"`
	PhonePolicy       *PhoneConfirmationPolicy `json:"phone_policy,omitempty"`
}

// JurisdictionConfig is one jurisdiction's full configuration document.
type JurisdictionConfig struct {
	SchemaVersion         string                     `json:"schema_version"`
	ID                    string                     `json:"city_id"`
	DisplayName           string                     `json:"display_name"`
	Kind                  JurisdictionKind           `json:"jurisdiction_kind"`
	Timezone              string                     `json:"timezone"`
	AppealDeadlineDays    int                        `json:"appeal_deadline_days"`
	OnlineAppealAvailable bool                       `json:"online_appeal_available"`
	OnlineAppealURL       string                     `json:"online_appeal_url,omitempty"`
	RoutingRule           RoutingRule                `json:"routing_rule"`
	CitationPatterns      []CitationPattern          `json:"citation_patterns"`
	AppealMailAddress     MailAddress                `json:"appeal_mail_address"`
	PhonePolicy           PhoneConfirmationPolicy    `json:"phone_policy"`
	Sections              map[string]Section         `json:"sections"`
	Verification          VerificationMetadata       `json:"verification"`
}

// FromDocument materializes a raw document into the strict schema. The raw
// map is round-tripped through JSON so numeric and nested shapes normalize
// the same way regardless of which format the document arrived in.
func FromDocument(doc map[string]any) (*JurisdictionConfig, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var cfg JurisdictionConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ToDocument projects the strict schema back into a raw document, the shape
// the adapter pipeline and the on-disk files use.
func (c *JurisdictionConfig) ToDocument() (map[string]any, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
