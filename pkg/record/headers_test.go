package record

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersMarshalPreservesOrder(t *testing.T) {
	h := Headers{
		{Name: "Z-Last", Value: "3"},
		{Name: "Content-Type", Value: "application/json"},
		{Name: "A-First", Value: "1"},
	}

	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Equal(t, `{"Z-Last":"3","Content-Type":"application/json","A-First":"1"}`, string(data))
}

func TestHeadersRoundTrip(t *testing.T) {
	in := Headers{
		{Name: "X-B", Value: "two"},
		{Name: "X-A", Value: "one"},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Headers
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestHeadersUnmarshalNonStringValues(t *testing.T) {
	var h Headers
	require.NoError(t, json.Unmarshal([]byte(`{"X-Count":42,"X-Flag":true,"X-Nil":null}`), &h))
	require.Len(t, h, 3)
	assert.Equal(t, "42", h[0].Value)
	assert.Equal(t, "true", h[1].Value)
	assert.Equal(t, "", h[2].Value)
}

func TestHeadersUnmarshalNull(t *testing.T) {
	h := Headers{{Name: "X", Value: "y"}}
	require.NoError(t, json.Unmarshal([]byte(`null`), &h))
	assert.Nil(t, h)
}

func TestHeadersUnmarshalRejectsNonObject(t *testing.T) {
	var h Headers
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &h))
}

func TestHeadersGet(t *testing.T) {
	h := Headers{
		{Name: "Content-Type", Value: "text/plain"},
		{Name: "content-type", Value: "shadowed"},
	}
	v, ok := h.Get("CONTENT-TYPE")
	assert.True(t, ok)
	assert.Equal(t, "text/plain", v, "first match wins")

	_, ok = h.Get("Missing")
	assert.False(t, ok)
}

func TestSortedByName(t *testing.T) {
	h := Headers{
		{Name: "b", Value: "2"},
		{Name: "a", Value: "1"},
		{Name: "c", Value: "3"},
	}
	sorted := h.SortedByName()
	assert.Equal(t, Headers{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}, {Name: "c", Value: "3"}}, sorted)
	assert.Equal(t, "b", h[0].Name, "input untouched")
}

func TestHeadersFromHTTP(t *testing.T) {
	src := http.Header{}
	src.Add("Accept", "text/html")
	src.Add("Accept", "application/json")
	src.Set("Host", "example.com")

	h := HeadersFromHTTP(src)
	require.Len(t, h, 2)
	v, _ := h.Get("Accept")
	assert.Equal(t, "text/html, application/json", v)

	assert.Nil(t, HeadersFromHTTP(nil))
}

func TestHeadersFromMap(t *testing.T) {
	h := HeadersFromMap(map[string]string{"b": "2", "a": "1"})
	assert.Equal(t, Headers{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}, h)
	assert.Nil(t, HeadersFromMap(nil))
}
