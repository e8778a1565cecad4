package adapt

import (
	"time"

	// Timezone validation must not depend on the host's zoneinfo files.
	_ "time/tzdata"

	citeroute "github.com/recourselabs/citeroute"
	"github.com/recourselabs/citeroute/schema"
)

// Option configures one adaptation run.
type Option struct {
	// Strict makes any invariant violation after the validation stage a hard
	// failure; nothing is auto-fixed and no document is returned.
	Strict bool
}

// Result carries the adapted document or the reasons there isn't one.
type Result struct {
	Success bool
	// Doc is the canonical raw document. In lenient mode it is present even
	// on failure so tooling can show what the fixer got to.
	Doc map[string]any
	// Config is the strict decode of Doc; only set on success.
	Config   *schema.JurisdictionConfig
	Warnings citeroute.Issues
	Errors   citeroute.Issues
}

// Adapt runs the six-stage pipeline over one raw document. The input map is
// never mutated.
func Adapt(input map[string]any, opt Option) Result {
	doc := deepCopy(input).(map[string]any)

	// Stages 1-3: normalize names, repair field shapes, inject defaults.
	doc = normalizeNames(doc)
	warnings := transformFields(doc)
	injectDefaults(doc)

	// Stage 4: validate the provisional decode.
	cfg, err := schema.FromDocument(doc)
	if err != nil {
		return Result{Warnings: warnings, Errors: structuralError(err)}
	}
	violations := cfg.Validate()
	violations = append(violations, documentChecks(doc)...)

	if opt.Strict {
		if len(violations) > 0 {
			return Result{Warnings: warnings, Errors: violations}
		}
	} else if len(violations) > 0 {
		// Stage 5: auto-fix, then re-validate. Anything still violated has
		// no deterministic repair and fails the run.
		warnings = append(warnings, autofix(doc, violations)...)
		cfg, err = schema.FromDocument(doc)
		if err != nil {
			return Result{Doc: doc, Warnings: warnings, Errors: structuralError(err)}
		}
		remaining := cfg.Validate()
		remaining = append(remaining, documentChecks(doc)...)
		if len(remaining) > 0 {
			return Result{Doc: doc, Warnings: warnings, Errors: remaining}
		}
	}

	// Stage 6: finalize and materialize the schema config.
	warnings = append(warnings, finalize(doc)...)
	cfg, err = schema.FromDocument(doc)
	if err != nil {
		return Result{Doc: doc, Warnings: warnings, Errors: structuralError(err)}
	}
	return Result{Success: true, Doc: doc, Config: cfg, Warnings: warnings}
}

func structuralError(err error) citeroute.Issues {
	return citeroute.Issues{{
		Path:    "/",
		Code:    citeroute.CodeParseError,
		Message: "document does not decode into the schema: " + err.Error(),
		Cause:   err,
	}}
}

// documentChecks covers the document-level rules the struct-level Validate
// cannot see: timezone resolvability and the online-appeal URL dependency.
func documentChecks(doc map[string]any) citeroute.Issues {
	var iss citeroute.Issues
	if tz, ok := getString(doc, "timezone"); ok && tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			iss = append(iss, citeroute.Issue{
				Path:    "/timezone",
				Code:    citeroute.CodeInvalidTimezone,
				Message: "timezone " + tz + " is not a recognized IANA zone",
				Cause:   err,
				Params:  map[string]any{"timezone": tz},
			})
		}
	}
	if avail, ok := doc["online_appeal_available"].(bool); ok && avail {
		if url, _ := getString(doc, "online_appeal_url"); url == "" {
			iss = append(iss, citeroute.IssueAt(
				"/online_appeal_url", citeroute.CodeMissingField,
				"online appeal is marked available but online_appeal_url is empty",
				map[string]any{"field": "online_appeal_url"}))
		}
	}
	return iss
}
