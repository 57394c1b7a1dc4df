package capture

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/httpledger/httpledger/pkg/export"
	"github.com/httpledger/httpledger/pkg/logger"
	"github.com/httpledger/httpledger/pkg/metrics"
	"github.com/httpledger/httpledger/pkg/policy"
	"github.com/httpledger/httpledger/pkg/record"
	"github.com/httpledger/httpledger/pkg/resolve"
	"github.com/httpledger/httpledger/pkg/store"
	"github.com/httpledger/httpledger/pkg/track"
)

// Export format names accepted by Export.
const (
	FormatCurl = "curl"
	FormatText = "text"
	FormatHAR  = "har"
)

var (
	// ErrMissingURL rejects a start event without a URL.
	ErrMissingURL = errors.New("capture: start requires a url")
	// ErrNotFound reports an export request for an unknown transaction.
	ErrNotFound = errors.New("capture: transaction not found")
	// ErrUnknownFormat reports an unsupported export format.
	ErrUnknownFormat = errors.New("capture: unknown export format")
)

// Notifier is invoked after every completed transaction when
// notifications are enabled. Implementations must not block; the engine
// calls them on their own goroutine and absorbs panics.
type Notifier interface {
	Notify(method, url string, status *int)
}

// Listener observes completed transactions, e.g. to feed a live view.
type Listener interface {
	OnTransaction(rec *record.Record)
}

// Config is the engine's configuration snapshot.
type Config struct {
	Enabled          bool
	Notify           bool
	MaxBodySize      int
	RedactHeaders    []string
	RedactJSONFields []string
	Platform         string
	TrackerTTL       time.Duration
}

// DefaultConfig returns the engine defaults: enabled, notifying, with
// the default redaction and truncation policy.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Notify:  true,
	}
}

// StartRequest carries the data of a request start event.
type StartRequest struct {
	// ID is the caller-supplied correlation id. Empty means the engine
	// generates one.
	ID            string
	Method        string
	URL           string
	Headers       record.Headers
	Body          *string
	StartTS       int64 // epoch milliseconds; 0 means now
	CorrelationID string
}

// FinishRequest carries the data of a request completion event.
type FinishRequest struct {
	ID       string
	Status   *int
	Headers  record.Headers
	Body     *string
	Error    *string
	Protocol *string
	SSL      *bool
	// Method and URL are best-effort fallbacks for a finish whose start
	// was never observed.
	Method   string
	URL      string
	FinishTS int64 // epoch milliseconds; 0 means now
}

// Engine is the capture facade and viewer: the single entry point the
// transport interceptors call, and the read API the viewer consumes.
// Construct one per process (or per test) and inject it; there is no
// package-level instance.
type Engine struct {
	cfg       Config
	pol       *policy.Policy
	trk       *track.Tracker
	st        store.Store
	log       logger.Logger
	met       *metrics.Metrics
	notifier  Notifier
	resolver  resolve.Resolver
	listeners []Listener
}

// Option customizes an Engine.
type Option func(*Engine)

// WithNotifier attaches the notification collaborator.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithResolver attaches a host resolver used to enrich stored records
// with the server address after finish, off the capture path.
func WithResolver(r resolve.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.met = m }
}

// WithListener subscribes a completed-transaction observer.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

// New creates an engine over the given store.
func New(cfg Config, st store.Store, log logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		cfg: cfg,
		pol: policy.New(cfg.MaxBodySize, cfg.RedactHeaders, cfg.RedactJSONFields),
		trk: track.New(cfg.TrackerTTL),
		st:  st,
		log: log,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.met != nil {
		switch s := st.(type) {
		case *store.MemoryStore:
			s.SetEvictionHook(func(string) { e.met.EvictionsTotal.Inc() })
		case *store.SQLiteStore:
			s.Memory().SetEvictionHook(func(string) { e.met.EvictionsTotal.Inc() })
		}
	}
	return e
}

// Start records the beginning of a transaction and returns its id.
// The only rejected input is a missing URL; everything else degrades to
// a best-effort record. Safe for concurrent use.
func (e *Engine) Start(req StartRequest) (string, error) {
	if req.URL == "" {
		return "", ErrMissingURL
	}
	id := req.ID
	if id == "" {
		id = ulid.Make().String()
	}
	if !e.cfg.Enabled {
		return id, nil
	}

	startTS := req.StartTS
	if startTS == 0 {
		startTS = time.Now().UnixMilli()
	}
	method := req.Method
	if method == "" {
		method = "GET"
	}

	body, truncated := e.pol.ApplyBody(req.Body)
	host, path, query := record.SplitURL(req.URL)

	rec := &record.Record{
		ID:               id,
		StartTS:          startTS,
		Method:           method,
		URL:              req.URL,
		Host:             host,
		Path:             path,
		Query:            query,
		ReqHeaders:       e.pol.RedactHeaders(req.Headers),
		ReqBody:          body,
		ReqBodyTruncated: truncated,
		SSL:              record.SSLFromURL(req.URL),
		Platform:         e.cfg.Platform,
	}
	if req.CorrelationID != "" {
		cid := req.CorrelationID
		rec.CorrelationID = &cid
	}

	e.trk.Begin(id, startTS)
	if err := e.st.Upsert(rec); err != nil {
		e.log.Warn("failed to store transaction %s: %v", id, err)
	}
	if e.met != nil {
		e.met.StartedTotal.Inc()
		e.met.StoredRecords.Set(float64(e.st.Len()))
	}
	return id, nil
}

// Finish records the completion of a transaction. A finish for an id
// whose start was never observed synthesizes a record from whatever the
// payload supplies; this never fails back to the caller.
func (e *Engine) Finish(req FinishRequest) {
	if req.ID == "" || !e.cfg.Enabled {
		return
	}
	finishTS := req.FinishTS
	if finishTS == 0 {
		finishTS = time.Now().UnixMilli()
	}
	durationMS, tracked := e.trk.End(req.ID, finishTS)

	rec, found := e.st.Get(req.ID)
	if !found {
		host, path, query := record.SplitURL(req.URL)
		rec = &record.Record{
			ID:       req.ID,
			StartTS:  finishTS,
			Method:   req.Method,
			URL:      req.URL,
			Host:     host,
			Path:     path,
			Query:    query,
			Platform: e.cfg.Platform,
		}
		if e.met != nil {
			e.met.UnmatchedFinishTotal.Inc()
		}
	}

	body, truncated := e.pol.ApplyBody(req.Body)
	rec.ResStatus = req.Status
	rec.ResHeaders = e.pol.RedactHeaders(req.Headers)
	rec.ResBody = body
	rec.ResBodyTruncated = truncated
	rec.Protocol = req.Protocol
	rec.IsError = req.Error != nil
	rec.ErrorMessage = req.Error
	if tracked {
		d := durationMS
		rec.DurationMS = &d
	}
	if req.SSL != nil {
		rec.SSL = *req.SSL
	} else if rec.URL != "" {
		rec.SSL = record.SSLFromURL(rec.URL)
	}

	if err := e.st.Upsert(rec); err != nil {
		e.log.Warn("failed to store transaction %s: %v", req.ID, err)
	}
	if e.met != nil {
		e.met.FinishedTotal.Inc()
		e.met.StoredRecords.Set(float64(e.st.Len()))
	}

	if e.cfg.Notify && e.notifier != nil {
		go e.runNotifier(rec.Method, rec.URL, req.Status)
	}
	if e.resolver != nil && rec.Host != "" {
		go e.enrichServerAddr(rec.ID, rec.Host)
	}
	for _, l := range e.listeners {
		go e.runListener(l, rec.Clone())
	}
}

// List returns all transactions, newest start first.
func (e *Engine) List() []*record.Record {
	return e.st.List()
}

// Get returns the transaction with the given id.
func (e *Engine) Get(id string) (*record.Record, bool) {
	return e.st.Get(id)
}

// Clear drops the whole history.
func (e *Engine) Clear() error {
	if err := e.st.Clear(); err != nil {
		return err
	}
	if e.met != nil {
		e.met.StoredRecords.Set(0)
	}
	return nil
}

// Export renders the transaction with the given id in the requested
// format (curl, text or har).
func (e *Engine) Export(id, format string) (string, error) {
	rec, ok := e.st.Get(id)
	if !ok {
		return "", ErrNotFound
	}
	switch format {
	case FormatCurl:
		return export.Curl(rec), nil
	case FormatText:
		return export.PlainText(rec), nil
	case FormatHAR:
		return export.HAR(rec), nil
	default:
		return "", ErrUnknownFormat
	}
}

// ExportAll renders the whole history as a single HAR document.
func (e *Engine) ExportAll() string {
	return export.HAR(e.st.List()...)
}

func (e *Engine) runNotifier(method, url string, status *int) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("notifier panicked: %v", r)
		}
	}()
	e.notifier.Notify(method, url, status)
	if e.met != nil {
		e.met.NotificationsTotal.Inc()
	}
}

func (e *Engine) runListener(l Listener, rec *record.Record) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("transaction listener panicked: %v", r)
		}
	}()
	l.OnTransaction(rec)
}

// enrichServerAddr resolves the host and writes the address back onto
// the stored record. Losing the race against a concurrent upsert for
// the same id is acceptable; last writer wins.
func (e *Engine) enrichServerAddr(id, host string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("resolver panicked: %v", r)
		}
	}()
	addr, err := e.resolver.LookupAddr(host)
	if err != nil {
		e.log.Debug("address lookup for %s failed: %v", host, err)
		return
	}
	rec, ok := e.st.Get(id)
	if !ok {
		return
	}
	rec.ServerAddr = addr
	if err := e.st.Upsert(rec); err != nil {
		e.log.Warn("failed to store resolved address for %s: %v", id, err)
	}
}
