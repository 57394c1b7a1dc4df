package httpcapture

import (
	"bytes"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/httpledger/httpledger/pkg/capture"
	"github.com/httpledger/httpledger/pkg/record"
)

// CorrelationHeader tags outgoing requests so a transaction can be
// matched to server-side logs.
const CorrelationHeader = "X-Httpledger-Id"

// Transport is an http.RoundTripper that records every request/response
// pair through the capture engine. It is the Go-native shape of the
// abstract {onRequestStart, onRequestComplete} capability: any client
// gains recording by wrapping its transport.
//
// Bodies are read fully into memory before being handed on; the engine
// truncates what it stores, but the wire payload passes through intact.
type Transport struct {
	// Base performs the actual request. nil means http.DefaultTransport.
	Base http.RoundTripper
	// Engine receives the start/finish events.
	Engine *capture.Engine
}

// NewTransport wraps base with recording through engine.
func NewTransport(engine *capture.Engine, base http.RoundTripper) *Transport {
	return &Transport{Base: base, Engine: engine}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Engine == nil {
		return base.RoundTrip(req)
	}

	correlationID := uuid.NewString()
	out := req.Clone(req.Context())
	out.Header.Set(CorrelationHeader, correlationID)

	var reqBody *string
	if out.Body != nil && out.Body != http.NoBody {
		data, err := io.ReadAll(out.Body)
		out.Body.Close()
		if err != nil {
			return nil, err
		}
		out.Body = io.NopCloser(bytes.NewReader(data))
		if IsTextLike(data, out.Header.Get("Content-Type")) {
			s := string(data)
			reqBody = &s
		}
	}

	id, err := t.Engine.Start(capture.StartRequest{
		Method:        out.Method,
		URL:           out.URL.String(),
		Headers:       record.HeadersFromHTTP(out.Header),
		Body:          reqBody,
		CorrelationID: correlationID,
	})
	if err != nil {
		// Only a missing URL is rejected; pass the request through
		// unrecorded rather than failing real traffic.
		return base.RoundTrip(out)
	}

	resp, rtErr := base.RoundTrip(out)
	if rtErr != nil {
		msg := rtErr.Error()
		t.Engine.Finish(capture.FinishRequest{
			ID:     id,
			Error:  &msg,
			Method: out.Method,
			URL:    out.URL.String(),
		})
		return nil, rtErr
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		msg := err.Error()
		t.Engine.Finish(capture.FinishRequest{
			ID:     id,
			Status: &resp.StatusCode,
			Error:  &msg,
			Method: out.Method,
			URL:    out.URL.String(),
		})
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))

	var resBody *string
	decoded, decErr := DecodeBody(data, resp.Header.Get("Content-Encoding"))
	if decErr != nil {
		decoded = data
	}
	if IsTextLike(decoded, resp.Header.Get("Content-Type")) {
		s := string(decoded)
		resBody = &s
	}

	ssl := out.URL.Scheme == "https"
	proto := resp.Proto
	t.Engine.Finish(capture.FinishRequest{
		ID:       id,
		Status:   &resp.StatusCode,
		Headers:  record.HeadersFromHTTP(resp.Header),
		Body:     resBody,
		Protocol: &proto,
		SSL:      &ssl,
		Method:   out.Method,
		URL:      out.URL.String(),
	})
	return resp, nil
}

// NewClient returns an http.Client whose transport records through engine.
func NewClient(engine *capture.Engine) *http.Client {
	return &http.Client{Transport: NewTransport(engine, nil)}
}
