package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Header is a single name/value pair.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list. Unlike a Go map it preserves both
// the original key casing and the insertion order, which the exporters
// rely on (curl emits headers in capture order, HAR sorts by name).
type Headers []Header

// Get returns the value of the first header matching name case-insensitively.
func (h Headers) Get(name string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value, true
		}
	}
	return "", false
}

// Clone returns a copy of the header list.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	c := make(Headers, len(h))
	copy(c, h)
	return c
}

// SortedByName returns a copy sorted by header name. Deterministic
// output for the HAR exporter.
func (h Headers) SortedByName() Headers {
	c := h.Clone()
	sort.SliceStable(c, func(i, j int) bool { return c[i].Name < c[j].Name })
	return c
}

// MarshalJSON serializes the headers as a JSON object whose key order
// matches the list order.
func (h Headers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, hdr := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(hdr.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(hdr.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object back into an ordered list, keeping
// the key order of the document. Non-string values are re-encoded as
// compact JSON text.
func (h *Headers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*h = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("headers: expected JSON object, got %v", tok)
	}
	out := Headers{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("headers: expected string key, got %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		out = append(out, Header{Name: key, Value: stringifyValue(value)})
	}
	*h = out
	return nil
}

// HeadersFromMap builds an ordered header list from a plain map.
// Keys are sorted so that the result is deterministic.
func HeadersFromMap(m map[string]string) Headers {
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(Headers, 0, len(m))
	for _, name := range names {
		out = append(out, Header{Name: name, Value: m[name]})
	}
	return out
}

// HeadersFromHTTP flattens an http.Header. Multi-valued headers are
// joined with ", " as on the wire.
func HeadersFromHTTP(h http.Header) Headers {
	if len(h) == 0 {
		return nil
	}
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(Headers, 0, len(h))
	for _, name := range names {
		out = append(out, Header{Name: name, Value: strings.Join(h[name], ", ")})
	}
	return out
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
