package schema

import (
	"fmt"
	"regexp"
	"sort"

	citeroute "github.com/recourselabs/citeroute"
)

// Validate evaluates every schema invariant and returns one issue per
// violation. It never short-circuits; a document with three problems reports
// three issues.
func (c *JurisdictionConfig) Validate() citeroute.Issues {
	var iss citeroute.Issues

	// Identity: id and display_name non-empty.
	if c.ID == "" {
		iss = citeroute.AppendIssues(iss, citeroute.IssueAt(
			"/city_id", citeroute.CodeMissingField, "id is required",
			map[string]any{"field": "city_id"}))
	}
	if c.DisplayName == "" {
		iss = citeroute.AppendIssues(iss, citeroute.IssueAt(
			"/display_name", citeroute.CodeMissingField, "display_name is required",
			map[string]any{"field": "display_name"}))
	}

	// Patterns: at least one, every regex compiles, every section_id
	// resolves.
	if len(c.CitationPatterns) == 0 {
		iss = citeroute.AppendIssues(iss, citeroute.IssueAt(
			"/citation_patterns", citeroute.CodeNoPatterns,
			"at least one citation pattern is required", nil))
	}
	for i, p := range c.CitationPatterns {
		if _, err := regexp.Compile(p.Regex); err != nil {
			iss = citeroute.AppendIssues(iss, citeroute.Issue{
				Path:    fmt.Sprintf("/citation_patterns/%d/regex", i),
				Code:    citeroute.CodeInvalidRegex,
				Message: fmt.Sprintf("citation pattern %d has an invalid regex: %v", i, err),
				Cause:   err,
				Params:  map[string]any{"index": i, "regex": p.Regex},
			})
		}
		if _, ok := c.Sections[p.SectionID]; !ok {
			iss = citeroute.AppendIssues(iss, citeroute.Issue{
				Path:    fmt.Sprintf("/citation_patterns/%d/section_id", i),
				Code:    citeroute.CodeDanglingSection,
				Message: fmt.Sprintf("citation pattern %d references unknown section %q", i, p.SectionID),
				Params:  map[string]any{"index": i, "section_id": p.SectionID},
			})
		}
	}

	// Section iteration is sorted so issue order is stable across runs.
	ids := make([]string, 0, len(c.Sections))
	for id := range c.Sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Addresses: each active union case carries its required fields.
	iss = append(iss, c.validateAddress("/appeal_mail_address", c.AppealMailAddress)...)
	for _, id := range ids {
		if sec := c.Sections[id]; sec.AppealMailAddress != nil {
			path := "/sections/" + id + "/appeal_mail_address"
			iss = append(iss, c.validateAddress(path, *sec.AppealMailAddress)...)
		}
	}

	// A routes_to_section rule must not resolve to a missing address.
	if c.RoutingRule == RouteToSection && c.effectiveStart("").IsMissing() {
		iss = citeroute.AppendIssues(iss, citeroute.IssueAt(
			"/routing_rule", citeroute.CodeRoutingIncomplete,
			"routing_rule routes_to_section requires a non-missing address", nil))
	}
	for _, id := range ids {
		if sec := c.Sections[id]; sec.RoutingRule == RouteToSection && c.effectiveStart(id).IsMissing() {
			iss = citeroute.AppendIssues(iss, citeroute.Issue{
				Path:    "/sections/" + id + "/routing_rule",
				Code:    citeroute.CodeRoutingIncomplete,
				Message: fmt.Sprintf("section %q routes to a section but its effective address is missing", id),
				Params:  map[string]any{"section_id": id},
			})
		}
	}

	// A required phone policy carries its dependent fields.
	iss = append(iss, validatePhonePolicy("/phone_policy", c.PhonePolicy)...)
	for _, id := range ids {
		if sec := c.Sections[id]; sec.PhonePolicy != nil {
			iss = append(iss, validatePhonePolicy("/sections/"+id+"/phone_policy", *sec.PhonePolicy)...)
		}
	}

	return iss
}

func (c *JurisdictionConfig) validateAddress(path string, a MailAddress) citeroute.Issues {
	var iss citeroute.Issues
	switch a.Status {
	case AddressComplete:
		for _, fv := range []struct{ field, value string }{
			{"address1", a.Address1},
			{"city", a.City},
			{"state", a.State},
			{"zip", a.Zip},
			{"country", a.Country},
		} {
			field, v := fv.field, fv.value
			if v == "" {
				iss = citeroute.AppendIssues(iss, citeroute.Issue{
					Path:    path + "/" + field,
					Code:    citeroute.CodeIncompleteAddr,
					Message: fmt.Sprintf("complete address is missing %s", field),
					Params:  map[string]any{"field": field},
				})
			}
		}
	case AddressRoutesElsewhere:
		if _, ok := c.Sections[a.RoutesToSectionID]; !ok {
			iss = citeroute.AppendIssues(iss, citeroute.Issue{
				Path:    path + "/routes_to_section_id",
				Code:    citeroute.CodeDanglingSection,
				Message: fmt.Sprintf("address routes to unknown section %q", a.RoutesToSectionID),
				Params:  map[string]any{"section_id": a.RoutesToSectionID},
			})
		}
	}
	return iss
}

func validatePhonePolicy(path string, p PhoneConfirmationPolicy) citeroute.Issues {
	if !p.Required {
		return nil
	}
	var iss citeroute.Issues
	if p.PhoneFormatRegex == "" {
		iss = citeroute.AppendIssues(iss, citeroute.IssueAt(
			path+"/phone_format_regex", citeroute.CodePhoneIncomplete,
			"required phone policy is missing phone_format_regex",
			map[string]any{"field": "phone_format_regex"}))
	} else if _, err := regexp.Compile(p.PhoneFormatRegex); err != nil {
		iss = citeroute.AppendIssues(iss, citeroute.Issue{
			Path:    path + "/phone_format_regex",
			Code:    citeroute.CodeInvalidRegex,
			Message: fmt.Sprintf("phone_format_regex does not compile: %v", err),
			Cause:   err,
		})
	}
	if p.ConfirmationMessage == "" {
		iss = citeroute.AppendIssues(iss, citeroute.IssueAt(
			path+"/confirmation_message", citeroute.CodePhoneIncomplete,
			"required phone policy is missing confirmation_message",
			map[string]any{"field": "confirmation_message"}))
	}
	if p.ConfirmationDeadlineHours <= 0 {
		iss = citeroute.AppendIssues(iss, citeroute.IssueAt(
			path+"/confirmation_deadline_hours", citeroute.CodePhoneIncomplete,
			"required phone policy is missing confirmation_deadline_hours",
			map[string]any{"field": "confirmation_deadline_hours"}))
	}
	if len(p.PhoneNumberExamples) == 0 {
		iss = citeroute.AppendIssues(iss, citeroute.IssueAt(
			path+"/phone_number_examples", citeroute.CodePhoneIncomplete,
			"required phone policy needs at least one phone_number_example",
			map[string]any{"field": "phone_number_examples"}))
	}
	return iss
}

// effectiveStart returns the address resolution would start from: the
// section's override when present, otherwise the jurisdiction-level address.
// An empty section id starts at the jurisdiction root.
func (c *JurisdictionConfig) effectiveStart(sectionID string) MailAddress {
	if sectionID == "" {
		return c.AppealMailAddress
	}
	if sec, ok := c.Sections[sectionID]; ok && sec.AppealMailAddress != nil {
		return *sec.AppealMailAddress
	}
	return c.AppealMailAddress
}

// EffectiveAddress returns the address resolution starts from for the given
// section (or the jurisdiction root for ""), before any routes_elsewhere
// hops are followed. The bool is false when the section does not exist.
func (c *JurisdictionConfig) EffectiveAddress(sectionID string) (MailAddress, bool) {
	if sectionID != "" {
		if _, ok := c.Sections[sectionID]; !ok {
			return MailAddress{}, false
		}
	}
	return c.effectiveStart(sectionID), true
}

// EffectivePhonePolicy returns the section's phone policy override when set,
// else the jurisdiction-level policy. The bool is false for unknown sections.
func (c *JurisdictionConfig) EffectivePhonePolicy(sectionID string) (PhoneConfirmationPolicy, bool) {
	if sectionID == "" {
		return c.PhonePolicy, true
	}
	sec, ok := c.Sections[sectionID]
	if !ok {
		return PhoneConfirmationPolicy{}, false
	}
	if sec.PhonePolicy != nil {
		return *sec.PhonePolicy, true
	}
	return c.PhonePolicy, true
}

// EffectiveRoutingRule returns the section's routing rule (sections always
// carry one after adaptation), else the jurisdiction-level rule.
func (c *JurisdictionConfig) EffectiveRoutingRule(sectionID string) (RoutingRule, bool) {
	if sectionID == "" {
		return c.RoutingRule, true
	}
	sec, ok := c.Sections[sectionID]
	if !ok {
		return "", false
	}
	if sec.RoutingRule != "" {
		return sec.RoutingRule, true
	}
	return c.RoutingRule, true
}
