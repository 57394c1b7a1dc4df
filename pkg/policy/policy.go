package policy

import (
	"encoding/json"
	"strings"

	"github.com/httpledger/httpledger/pkg/record"
)

// RedactedSentinel replaces every redacted value. The original value is
// never stored or logged once replaced.
const RedactedSentinel = "[REDACTED]"

// DefaultMaxBodySize caps stored body text at 128 KiB.
const DefaultMaxBodySize = 131072

// DefaultRedactHeaders are the header names redacted when nothing is configured.
var DefaultRedactHeaders = []string{"authorization", "cookie"}

// DefaultRedactJSONFields are the top-level JSON field names redacted by default.
var DefaultRedactJSONFields = []string{"password", "token"}

// Policy applies redaction and truncation to captured request/response data.
// It is a stateless snapshot of the relevant configuration; a zero value
// is not usable, construct one with New.
type Policy struct {
	maxBodySize      int
	redactHeaders    map[string]struct{}
	redactJSONFields map[string]struct{}
}

// New builds a policy from a configuration snapshot. Zero or negative
// maxBodySize and nil name lists fall back to the defaults.
func New(maxBodySize int, redactHeaders, redactJSONFields []string) *Policy {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if redactHeaders == nil {
		redactHeaders = DefaultRedactHeaders
	}
	if redactJSONFields == nil {
		redactJSONFields = DefaultRedactJSONFields
	}
	return &Policy{
		maxBodySize:      maxBodySize,
		redactHeaders:    lowerSet(redactHeaders),
		redactJSONFields: lowerSet(redactJSONFields),
	}
}

// Default returns a policy with all defaults applied.
func Default() *Policy {
	return New(0, nil, nil)
}

// MaxBodySize returns the configured body cap in bytes.
func (p *Policy) MaxBodySize() int {
	return p.maxBodySize
}

// RedactHeaders replaces the value of every header whose lowercased name
// is configured for redaction. Key casing and order are preserved.
// Idempotent: redacting twice yields the same result.
func (p *Policy) RedactHeaders(headers record.Headers) record.Headers {
	if len(headers) == 0 {
		return headers
	}
	out := make(record.Headers, len(headers))
	for i, h := range headers {
		if _, hit := p.redactHeaders[strings.ToLower(h.Name)]; hit {
			h.Value = RedactedSentinel
		}
		out[i] = h
	}
	return out
}

// RedactJSONBody replaces the value of every top-level key of a JSON
// object body whose lowercased name is configured for redaction.
// Best-effort: anything that is not a JSON object passes through unchanged.
func (p *Policy) RedactJSONBody(body string) string {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return body
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return body
	}
	hit := false
	for key := range obj {
		if _, ok := p.redactJSONFields[strings.ToLower(key)]; ok {
			obj[key] = json.RawMessage(`"` + RedactedSentinel + `"`)
			hit = true
		}
	}
	if !hit {
		return body
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return body
	}
	return string(out)
}

// Truncate caps body text at the configured maximum. Length is measured
// in bytes; a truncated body is exactly maxBodySize bytes long.
// A nil body stays nil.
func (p *Policy) Truncate(body *string) (*string, bool) {
	if body == nil {
		return nil, false
	}
	if len(*body) <= p.maxBodySize {
		return body, false
	}
	cut := (*body)[:p.maxBodySize]
	return &cut, true
}

// ApplyBody runs redaction then truncation, in that order. Redaction may
// shrink a field but is never skipped because of size.
func (p *Policy) ApplyBody(body *string) (*string, bool) {
	if body == nil {
		return nil, false
	}
	redacted := p.RedactJSONBody(*body)
	return p.Truncate(&redacted)
}

func lowerSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = struct{}{}
	}
	return set
}
