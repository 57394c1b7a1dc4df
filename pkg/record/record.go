package record

import (
	"net/url"
	"strings"
)

// Record represents a single captured HTTP request/response pair.
// The request side is filled at start time, the response side at finish time.
type Record struct {
	ID               string  `json:"id"`
	StartTS          int64   `json:"startTs"`
	DurationMS       *int64  `json:"durationMs,omitempty"`
	Method           string  `json:"method"`
	URL              string  `json:"url"`
	Host             string  `json:"host,omitempty"`
	Path             string  `json:"path,omitempty"`
	Query            string  `json:"query,omitempty"`
	ReqHeaders       Headers `json:"reqHeaders,omitempty"`
	ReqBody          *string `json:"reqBody,omitempty"`
	ReqBodyTruncated bool    `json:"reqBodyTruncated"`
	ResStatus        *int    `json:"resStatus,omitempty"`
	ResHeaders       Headers `json:"resHeaders,omitempty"`
	ResBody          *string `json:"resBody,omitempty"`
	ResBodyTruncated bool    `json:"resBodyTruncated"`
	Protocol         *string `json:"protocol,omitempty"`
	SSL              bool    `json:"ssl"`
	IsError          bool    `json:"error"`
	ErrorMessage     *string `json:"errorMessage,omitempty"`
	Platform         string  `json:"platform,omitempty"`
	CorrelationID    *string `json:"correlationId,omitempty"`
	ServerAddr       string  `json:"serverAddr,omitempty"`
}

// Clone returns a deep copy of the record so that store snapshots
// never alias memory still being mutated by a concurrent finish.
func (r *Record) Clone() *Record {
	c := *r
	c.ReqHeaders = r.ReqHeaders.Clone()
	c.ResHeaders = r.ResHeaders.Clone()
	c.DurationMS = cloneInt64(r.DurationMS)
	c.ResStatus = cloneInt(r.ResStatus)
	c.ReqBody = cloneString(r.ReqBody)
	c.ResBody = cloneString(r.ResBody)
	c.Protocol = cloneString(r.Protocol)
	c.ErrorMessage = cloneString(r.ErrorMessage)
	c.CorrelationID = cloneString(r.CorrelationID)
	return &c
}

// SplitURL derives host, path and query from a raw URL.
// Parse failures are not fatal; the caller gets empty strings.
func SplitURL(raw string) (host, path, query string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", ""
	}
	return u.Host, u.Path, u.RawQuery
}

// SSLFromURL reports whether the URL scheme implies TLS.
// Used when a finish event carries no explicit ssl flag.
func SSLFromURL(raw string) bool {
	return strings.HasPrefix(strings.ToLower(raw), "https")
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
