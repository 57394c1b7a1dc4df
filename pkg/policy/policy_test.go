package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httpledger/httpledger/pkg/record"
)

func TestRedactHeaders_CaseInsensitive(t *testing.T) {
	p := Default()

	for _, name := range []string{"Authorization", "AUTHORIZATION", "authorization"} {
		headers := record.Headers{{Name: name, Value: "Bearer abc"}}
		out := p.RedactHeaders(headers)
		require.Len(t, out, 1)
		assert.Equal(t, name, out[0].Name, "key casing must be preserved")
		assert.Equal(t, RedactedSentinel, out[0].Value)
	}
}

func TestRedactHeaders_PreservesOrderAndPassthrough(t *testing.T) {
	p := New(0, []string{"x-api-key"}, nil)
	headers := record.Headers{
		{Name: "Accept", Value: "application/json"},
		{Name: "X-Api-Key", Value: "s3cret"},
		{Name: "User-Agent", Value: "test"},
	}

	out := p.RedactHeaders(headers)
	require.Len(t, out, 3)
	assert.Equal(t, "Accept", out[0].Name)
	assert.Equal(t, "application/json", out[0].Value)
	assert.Equal(t, RedactedSentinel, out[1].Value)
	assert.Equal(t, "test", out[2].Value)

	// Original input must not be mutated.
	assert.Equal(t, "s3cret", headers[1].Value)
}

func TestRedactHeaders_Idempotent(t *testing.T) {
	p := Default()
	headers := record.Headers{
		{Name: "Cookie", Value: "session=1"},
		{Name: "Accept", Value: "*/*"},
	}

	once := p.RedactHeaders(headers)
	twice := p.RedactHeaders(once)
	assert.Equal(t, once, twice)
}

func TestRedactJSONBody(t *testing.T) {
	p := Default()

	out := p.RedactJSONBody(`{"password":"secret"}`)
	assert.Equal(t, `{"password":"[REDACTED]"}`, out)

	out = p.RedactJSONBody(`{"Token":"abc","user":"bob"}`)
	assert.Contains(t, out, `"Token":"[REDACTED]"`)
	assert.Contains(t, out, `"user":"bob"`)
}

func TestRedactJSONBody_BestEffort(t *testing.T) {
	p := Default()

	// Not a JSON object: unchanged.
	assert.Equal(t, `[1,2,3]`, p.RedactJSONBody(`[1,2,3]`))
	assert.Equal(t, `plain text`, p.RedactJSONBody(`plain text`))
	// Malformed: unchanged.
	assert.Equal(t, `{"password":`, p.RedactJSONBody(`{"password":`))
	// No matching field: byte-for-byte identical.
	assert.Equal(t, `{"a": 1,  "b": 2}`, p.RedactJSONBody(`{"a": 1,  "b": 2}`))
}

func TestTruncate_Exactness(t *testing.T) {
	p := New(10, nil, nil)

	long := strings.Repeat("x", 25)
	out, truncated := p.Truncate(&long)
	require.NotNil(t, out)
	assert.True(t, truncated)
	assert.Len(t, *out, 10)

	short := "hello"
	out, truncated = p.Truncate(&short)
	require.NotNil(t, out)
	assert.False(t, truncated)
	assert.Equal(t, "hello", *out)

	exact := strings.Repeat("y", 10)
	out, truncated = p.Truncate(&exact)
	assert.False(t, truncated)
	assert.Equal(t, exact, *out)

	out, truncated = p.Truncate(nil)
	assert.Nil(t, out)
	assert.False(t, truncated)
}

func TestApplyBody_RedactsBeforeTruncating(t *testing.T) {
	// The redacted body fits the cap even though the raw body does not.
	body := `{"password":"` + strings.Repeat("s", 100) + `"}`
	p := New(40, nil, nil)

	out, truncated := p.ApplyBody(&body)
	require.NotNil(t, out)
	assert.False(t, truncated)
	assert.Equal(t, `{"password":"[REDACTED]"}`, *out)
}

func TestApplyBody_TruncatesAfterRedaction(t *testing.T) {
	body := `{"note":"` + strings.Repeat("n", 100) + `"}`
	p := New(16, nil, nil)

	out, truncated := p.ApplyBody(&body)
	require.NotNil(t, out)
	assert.True(t, truncated)
	assert.Len(t, *out, 16)
}

func TestDefaults(t *testing.T) {
	p := Default()
	assert.Equal(t, DefaultMaxBodySize, p.MaxBodySize())

	headers := record.Headers{
		{Name: "Authorization", Value: "x"},
		{Name: "Cookie", Value: "y"},
	}
	out := p.RedactHeaders(headers)
	assert.Equal(t, RedactedSentinel, out[0].Value)
	assert.Equal(t, RedactedSentinel, out[1].Value)

	assert.Equal(t, `{"token":"[REDACTED]"}`, p.RedactJSONBody(`{"token":"t"}`))
}
