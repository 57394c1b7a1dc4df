package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httpledger/httpledger/pkg/record"
)

func strPtr(s string) *string { return &s }

func TestCurlBasic(t *testing.T) {
	rec := &record.Record{
		Method: "GET",
		URL:    "https://api.example.com/users?x=1",
	}
	assert.Equal(t, "curl -X GET 'https://api.example.com/users?x=1'", Curl(rec))
}

func TestCurlHeadersInCaptureOrder(t *testing.T) {
	rec := &record.Record{
		Method: "POST",
		URL:    "https://api.example.com/users",
		ReqHeaders: record.Headers{
			{Name: "Content-Type", Value: "application/json"},
			{Name: "Authorization", Value: "[REDACTED]"},
		},
		ReqBody: strPtr(`{"name":"demo"}`),
	}

	got := Curl(rec)
	want := "curl -X POST 'https://api.example.com/users' \\\n" +
		"  -H 'Content-Type: application/json' \\\n" +
		"  -H 'Authorization: [REDACTED]' \\\n" +
		"  --data '{\"name\":\"demo\"}'"
	assert.Equal(t, want, got)
}

func TestCurlEscapesSingleQuotes(t *testing.T) {
	rec := &record.Record{
		Method:  "POST",
		URL:     "https://example.com/o'brien",
		ReqBody: strPtr(`{"name":"o'brien"}`),
	}

	got := Curl(rec)
	assert.Contains(t, got, `'https://example.com/o'\''brien'`)
	assert.Contains(t, got, `--data '{"name":"o'\''brien"}'`)
}

func TestCurlSkipsBlankBody(t *testing.T) {
	rec := &record.Record{Method: "GET", URL: "https://example.com/", ReqBody: strPtr("   ")}
	assert.NotContains(t, Curl(rec), "--data")
}

func TestPlainTextSections(t *testing.T) {
	status := 200
	rec := &record.Record{
		Method:     "GET",
		URL:        "https://api.example.com/users",
		ReqHeaders: record.Headers{{Name: "Accept", Value: "application/json"}},
		ResStatus:  &status,
		ResHeaders: record.Headers{{Name: "Content-Type", Value: "application/json"}},
		ResBody:    strPtr(`{"ok":true}`),
	}

	got := PlainText(rec)
	parts := strings.Split(got, textDivider)
	require.Len(t, parts, 5)

	assert.Contains(t, parts[0], "URL\nhttps://api.example.com/users")
	assert.Contains(t, parts[1], "Request Headers\nAccept: application/json")
	assert.Contains(t, parts[2], "Request Body\n-", "absent body renders as dash")
	assert.Contains(t, parts[3], "Response Headers\nContent-Type: application/json")
	// JSON bodies are pretty-printed.
	assert.Contains(t, parts[4], "Response Body\n{\n  \"ok\": true\n}")
}

func TestPlainTextNonJSONBodyVerbatim(t *testing.T) {
	rec := &record.Record{
		Method:  "POST",
		URL:     "https://example.com/",
		ReqBody: strPtr("plain text payload"),
	}
	assert.Contains(t, PlainText(rec), "Request Body\nplain text payload")
}

func TestPlainTextEmptyRecord(t *testing.T) {
	rec := &record.Record{Method: "GET", URL: "https://example.com/"}
	got := PlainText(rec)
	assert.Contains(t, got, "Request Headers\n-\n")
	assert.Contains(t, got, "Request Body\n-\n")
	assert.Contains(t, got, "Response Headers\n-\n")
	assert.True(t, strings.HasSuffix(got, "Response Body\n-"))
}
