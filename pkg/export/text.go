package export

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/httpledger/httpledger/pkg/record"
)

const textDivider = "----------------------------------------"

// PlainText renders a transaction as a multi-section human-readable
// dump. Absent or blank sections render as "-". JSON bodies are
// pretty-printed; anything else is included verbatim.
func PlainText(rec *record.Record) string {
	var sb strings.Builder
	sb.WriteString("URL\n")
	sb.WriteString(rec.URL)
	sb.WriteString("\n")
	sb.WriteString(textDivider)
	sb.WriteString("\nRequest Headers\n")
	sb.WriteString(orDash(formatHeaderLines(rec.ReqHeaders)))
	sb.WriteString("\n")
	sb.WriteString(textDivider)
	sb.WriteString("\nRequest Body\n")
	sb.WriteString(orDash(formatBody(rec.ReqBody)))
	sb.WriteString("\n")
	sb.WriteString(textDivider)
	sb.WriteString("\nResponse Headers\n")
	sb.WriteString(orDash(formatHeaderLines(rec.ResHeaders)))
	sb.WriteString("\n")
	sb.WriteString(textDivider)
	sb.WriteString("\nResponse Body\n")
	sb.WriteString(orDash(formatBody(rec.ResBody)))
	return sb.String()
}

func formatHeaderLines(headers record.Headers) string {
	if len(headers) == 0 {
		return ""
	}
	lines := make([]string, 0, len(headers))
	for _, h := range headers {
		lines = append(lines, h.Name+": "+h.Value)
	}
	return strings.Join(lines, "\n")
}

// formatBody pretty-prints JSON bodies with two-space indentation.
// Unparseable bodies fall back to the raw string.
func formatBody(body *string) string {
	if body == nil {
		return ""
	}
	trimmed := strings.TrimSpace(*body)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return *body
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return *body
	}
	return buf.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
