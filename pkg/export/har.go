package export

import (
	"encoding/json"
	"time"

	"github.com/httpledger/httpledger/pkg/record"
)

// HAR document types following the HAR 1.2 specification. Only the
// fields this exporter fills are modelled; required array fields must
// not use omitempty.

// Document represents the root HAR object
type Document struct {
	Log Log `json:"log"`
}

// Log represents the log object containing all HTTP transaction data
type Log struct {
	Version string  `json:"version"`
	Creator Creator `json:"creator"`
	Pages   []Page  `json:"pages"` // Required by HAR 1.2 spec, must not use omitempty
	Entries []Entry `json:"entries"`
}

// Creator represents the application that created the HAR file
type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Page represents a page (optional in HAR)
type Page struct {
	StartedDateTime string  `json:"startedDateTime"`
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	PageTimings     Timings `json:"pageTimings"`
}

// Entry represents a single HTTP transaction
type Entry struct {
	StartedDateTime string   `json:"startedDateTime"`
	Time            int64    `json:"time"`
	Request         Request  `json:"request"`
	Response        Response `json:"response"`
	Cache           Cache    `json:"cache"`
	Timings         Timings  `json:"timings"`
	ServerIPAddress string   `json:"serverIPAddress,omitempty"`
}

// Request represents the HTTP request details
type Request struct {
	Method      string      `json:"method"`
	URL         string      `json:"url"`
	HTTPVersion string      `json:"httpVersion"`
	Cookies     []NameValue `json:"cookies"`
	Headers     []NameValue `json:"headers"`
	QueryString []NameValue `json:"queryString"`
	PostData    *PostData   `json:"postData,omitempty"`
	HeadersSize int         `json:"headersSize"`
	BodySize    int         `json:"bodySize"`
}

// Response represents the HTTP response details
type Response struct {
	Status      int         `json:"status"`
	StatusText  string      `json:"statusText"`
	HTTPVersion string      `json:"httpVersion"`
	Cookies     []NameValue `json:"cookies"`
	Headers     []NameValue `json:"headers"`
	Content     Content     `json:"content"`
	RedirectURL string      `json:"redirectURL"`
	HeadersSize int         `json:"headersSize"`
	BodySize    int         `json:"bodySize"`
}

// NameValue represents a name-value pair for headers, query parameters, etc.
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PostData represents POST data
type PostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Content represents response content
type Content struct {
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Cache represents cache information (always empty here)
type Cache struct{}

// Timings represents timing information
type Timings struct {
	Blocked int64 `json:"blocked"`
	DNS     int64 `json:"dns"`
	Connect int64 `json:"connect"`
	Send    int64 `json:"send"`
	Wait    int64 `json:"wait"`
	Receive int64 `json:"receive"`
}

// HAR renders one entry per record as a HAR 1.2 JSON document. Header
// maps are emitted sorted by name so the output is deterministic.
// Absent fields render as empty strings or zero; this never fails.
func HAR(recs ...*record.Record) string {
	doc := Document{
		Log: Log{
			Version: "1.2",
			Creator: Creator{Name: "httpledger", Version: "1.0.0"},
			Pages:   []Page{},
			Entries: make([]Entry, 0, len(recs)),
		},
	}
	for _, rec := range recs {
		doc.Log.Entries = append(doc.Log.Entries, harEntry(rec))
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return `{"log":{"version":"1.2","entries":[]}}`
	}
	return string(data)
}

func harEntry(rec *record.Record) Entry {
	duration := int64(0)
	if rec.DurationMS != nil && *rec.DurationMS > 0 {
		duration = *rec.DurationMS
	}
	status := 0
	if rec.ResStatus != nil {
		status = *rec.ResStatus
	}
	reqBody := ""
	if rec.ReqBody != nil {
		reqBody = *rec.ReqBody
	}
	resBody := ""
	if rec.ResBody != nil {
		resBody = *rec.ResBody
	}
	httpVersion := harHTTPVersion(rec.Protocol)

	var postData *PostData
	if reqBody != "" {
		mime, _ := rec.ReqHeaders.Get("Content-Type")
		if mime == "" {
			mime = "text/plain"
		}
		postData = &PostData{MimeType: mime, Text: reqBody}
	}

	resMime, _ := rec.ResHeaders.Get("Content-Type")
	if resMime == "" {
		resMime = "text/plain"
	}

	return Entry{
		StartedDateTime: isoTimestamp(rec.StartTS),
		Time:            duration,
		Request: Request{
			Method:      rec.Method,
			URL:         rec.URL,
			HTTPVersion: httpVersion,
			Cookies:     []NameValue{},
			Headers:     harHeaders(rec.ReqHeaders),
			QueryString: []NameValue{},
			PostData:    postData,
			HeadersSize: -1,
			BodySize:    len(reqBody),
		},
		Response: Response{
			Status:      status,
			StatusText:  "",
			HTTPVersion: httpVersion,
			Cookies:     []NameValue{},
			Headers:     harHeaders(rec.ResHeaders),
			Content: Content{
				Size:     len(resBody),
				MimeType: resMime,
				Text:     resBody,
			},
			RedirectURL: "",
			HeadersSize: -1,
			BodySize:    len(resBody),
		},
		Cache: Cache{},
		Timings: Timings{
			Blocked: 0,
			DNS:     -1,
			Connect: -1,
			Send:    0,
			Wait:    duration,
			Receive: 0,
		},
		ServerIPAddress: rec.ServerAddr,
	}
}

func harHeaders(headers record.Headers) []NameValue {
	sorted := headers.SortedByName()
	out := make([]NameValue, 0, len(sorted))
	for _, h := range sorted {
		out = append(out, NameValue{Name: h.Name, Value: h.Value})
	}
	return out
}

func harHTTPVersion(protocol *string) string {
	if protocol == nil {
		return "HTTP/1.1"
	}
	switch *protocol {
	case "h2", "http/2", "HTTP/2", "HTTP/2.0":
		return "HTTP/2.0"
	case "http/1.0", "HTTP/1.0":
		return "HTTP/1.0"
	case "h3", "http/3", "HTTP/3":
		return "HTTP/3.0"
	default:
		return "HTTP/1.1"
	}
}

func isoTimestamp(epochMillis int64) string {
	return time.UnixMilli(epochMillis).UTC().Format("2006-01-02T15:04:05.000Z")
}
