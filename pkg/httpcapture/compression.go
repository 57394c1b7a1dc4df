package httpcapture

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
)

// DecodeBody decompresses a response body according to its
// Content-Encoding so the engine stores readable text. Unknown or
// unsupported encodings return an error and the caller falls back to
// treating the payload as opaque.
func DecodeBody(body []byte, contentEncoding string) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))
	if encoding == "" || encoding == "identity" {
		return body, nil
	}
	// Multiple encodings (e.g. "gzip, deflate") apply outermost last.
	encodings := strings.Split(encoding, ",")
	for _, enc := range encodings {
		switch strings.TrimSpace(enc) {
		case "gzip", "x-gzip":
			return decodeGzip(body)
		case "deflate":
			return decodeDeflate(body)
		}
	}
	return nil, fmt.Errorf("unsupported content encoding: %s", contentEncoding)
}

func decodeGzip(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer reader.Close()
	result, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress gzip data: %w", err)
	}
	return result, nil
}

func decodeDeflate(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	reader := flate.NewReader(bytes.NewReader(data))
	defer reader.Close()
	result, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress deflate data: %w", err)
	}
	return result, nil
}

// IsTextLike checks whether the payload is worth storing as body text.
func IsTextLike(data []byte, contentType string) bool {
	if len(data) == 0 {
		return true
	}
	contentType = strings.ToLower(contentType)
	if strings.Contains(contentType, "text/") ||
		strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "application/xml") ||
		strings.Contains(contentType, "application/javascript") ||
		strings.Contains(contentType, "application/x-www-form-urlencoded") {
		return true
	}

	printableCount := 0
	for _, b := range data {
		if (b >= 32 && b <= 126) || b == 9 || b == 10 || b == 13 {
			printableCount++
		}
	}
	return float64(printableCount)/float64(len(data)) > 0.8
}
