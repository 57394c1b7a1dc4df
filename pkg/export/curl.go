package export

import (
	"strings"

	"github.com/httpledger/httpledger/pkg/record"
)

// Curl renders a transaction as a shell-safe curl command. Request
// headers appear in capture order; the body is attached with --data
// when present and non-blank.
func Curl(rec *record.Record) string {
	var sb strings.Builder
	sb.WriteString("curl -X ")
	sb.WriteString(rec.Method)
	sb.WriteString(" '")
	sb.WriteString(escapeSingleQuotes(rec.URL))
	sb.WriteString("'")

	for _, h := range rec.ReqHeaders {
		sb.WriteString(" \\\n  -H '")
		sb.WriteString(escapeSingleQuotes(h.Name))
		sb.WriteString(": ")
		sb.WriteString(escapeSingleQuotes(h.Value))
		sb.WriteString("'")
	}

	if rec.ReqBody != nil && strings.TrimSpace(*rec.ReqBody) != "" {
		sb.WriteString(" \\\n  --data '")
		sb.WriteString(escapeSingleQuotes(*rec.ReqBody))
		sb.WriteString("'")
	}
	return sb.String()
}

// escapeSingleQuotes makes a value safe inside single quotes: each '
// ends the quoted span, emits an escaped quote and reopens it.
func escapeSingleQuotes(value string) string {
	return strings.ReplaceAll(value, "'", `'\''`)
}
