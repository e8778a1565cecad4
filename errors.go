package citeroute

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeParseError        = "parse_error"
	CodeInvalidType       = "invalid_type"
	CodeMissingField      = "missing_field"
	CodeInvalidRegex      = "invalid_regex"
	CodeNoPatterns        = "no_patterns"
	CodeDanglingSection   = "dangling_section_ref"
	CodeIncompleteAddr    = "incomplete_address"
	CodeRoutingIncomplete = "routing_incomplete"
	CodePhoneIncomplete   = "phone_policy_incomplete"
	CodeInvalidTimezone   = "invalid_timezone"
	CodeInvalidValue      = "invalid_value"
	CodeExampleMismatch   = "example_mismatch"
	CodeSchemaVersion     = "schema_version_mismatch"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /citation_patterns/2/regex).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
	// Params carries structured parameters (e.g., {"index":2, "section_id":"main"})
	// so callers can react to a specific violation without string inspection.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_regex at /citation_patterns/0/regex
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Messages returns the human-readable message of every issue, for the
// presentation boundary (CLI output, operator logs).
func (iss Issues) Messages() []string {
	out := make([]string, 0, len(iss))
	for _, it := range iss {
		out = append(out, it.Message)
	}
	return out
}

// HasCode reports whether any issue carries the given code.
func (iss Issues) HasCode(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// At returns the first issue reported at the given pointer path.
func (iss Issues) At(path string) (Issue, bool) {
	for _, it := range iss {
		if it.Path == path {
			return it, true
		}
	}
	return Issue{}, false
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// IssueAt creates an Issue at the given path with the provided code, message
// and params map. Convenience helper for call sites with many parameters.
func IssueAt(path, code, msg string, params map[string]any) Issue {
	return Issue{Path: path, Code: code, Message: msg, Params: params}
}
