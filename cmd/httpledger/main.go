package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/httpledger/httpledger/internal/config"
	"github.com/httpledger/httpledger/internal/web"
	"github.com/httpledger/httpledger/pkg/capture"
	"github.com/httpledger/httpledger/pkg/httpcapture"
	"github.com/httpledger/httpledger/pkg/logger"
	"github.com/httpledger/httpledger/pkg/metrics"
	"github.com/httpledger/httpledger/pkg/resolve"
	"github.com/httpledger/httpledger/pkg/store"
)

const version = "1.0.0"

var (
	// Engine settings
	disabled         bool
	maxBodySize      int
	redactHeaders    []string
	redactJSONFields []string
	noNotify         bool
	maxEntries       int

	// Durability and viewer
	dbPath string
	listen string

	// Enrichment
	resolveAddrs bool
	dnsServer    string

	// Request settings
	method      string
	data        string
	headerFlags []string

	// Output
	configPath   string
	outputFile   string
	outputFormat string
	verbose      bool
	quiet        bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "httpledger [flags] [URL...]",
		Short: "httpledger - HTTP transaction recorder with redaction and export",
		Long: `httpledger records HTTP request/response pairs into a bounded,
queryable history. Sensitive headers and JSON fields are redacted,
bodies are truncated, and every transaction can be exported as a curl
command, a plain-text dump or a HAR 1.2 document.

Given URLs, httpledger performs the requests through its recording
transport and prints the chosen export format. With --listen it also
serves the viewer API (GET /logs, GET /logs/{id}, DELETE /logs,
GET /logs/{id}/export, GET /live, GET /metrics).

Examples:
  # Record a request and print it as a HAR document
  httpledger https://api.github.com/users/octocat

  # Record a POST and print the replayable curl command
  httpledger -X POST --data '{"name":"demo"}' --format curl https://httpbin.org/post

  # Persist history across runs and serve the viewer API
  httpledger --db ~/.config/httpledger/httpledger.db --listen 127.0.0.1:8787

  # Custom redaction set, body cap, plain text export to a file
  httpledger --redact-header x-api-key --max-body-size 4096 --format text -o out.txt https://httpbin.org/get`,
		Version: version,
		RunE:    runRecorder,
	}

	// Engine settings
	rootCmd.Flags().BoolVar(&disabled, "disabled", false, "Hand out ids without recording anything")
	rootCmd.Flags().IntVar(&maxBodySize, "max-body-size", config.DefaultMaxBodySize, "Maximum stored body size (bytes)")
	rootCmd.Flags().StringSliceVar(&redactHeaders, "redact-header", config.DefaultRedactHeaders, "Header names to redact (can be repeated)")
	rootCmd.Flags().StringSliceVar(&redactJSONFields, "redact-json-field", config.DefaultRedactJSONFields, "Top-level JSON field names to redact (can be repeated)")
	rootCmd.Flags().BoolVar(&noNotify, "no-notify", false, "Disable the completion notifier")
	rootCmd.Flags().IntVar(&maxEntries, "max-entries", config.DefaultMaxEntries, "Bounded history size")

	// Durability and viewer
	rootCmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (default: in-memory only)")
	rootCmd.Flags().StringVar(&listen, "listen", "", "Serve the viewer API on this address (e.g. 127.0.0.1:8787)")

	// Enrichment
	rootCmd.Flags().BoolVar(&resolveAddrs, "resolve", false, "Resolve server addresses for HAR export")
	rootCmd.Flags().StringVar(&dnsServer, "dns-server", "", "DNS server for lookups (host:port)")

	// Request settings
	rootCmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method for the given URLs")
	rootCmd.Flags().StringVar(&data, "data", "", "Request body for the given URLs")
	rootCmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "Request header 'Name: value' (can be repeated)")

	// Output
	rootCmd.Flags().StringVar(&configPath, "config", "", "Configuration file path (default: XDG config dir)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write export output to file instead of stdout")
	rootCmd.Flags().StringVar(&outputFormat, "format", "har", "Export format: curl, text, har")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress console output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRecorder(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	path := configPath
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	fileConfig, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	cfg.MergeWithFileConfig(fileConfig)

	if len(args) == 0 && cfg.Listen == "" {
		return fmt.Errorf("nothing to do: give URLs to record or --listen to serve the viewer API")
	}

	log := logger.New(cfg.Verbose, cfg.Quiet)

	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	met := metrics.New()
	opts := []capture.Option{
		capture.WithMetrics(met),
	}
	if cfg.Notify {
		opts = append(opts, capture.WithNotifier(&capture.LogNotifier{Log: log}))
	}
	if cfg.Resolve {
		opts = append(opts, capture.WithResolver(resolve.NewDNS(cfg.DNSServer, 0)))
	}

	var hub *web.Hub
	if cfg.Listen != "" {
		hub = web.NewHub(log)
		opts = append(opts, capture.WithListener(hub))
	}

	engine := capture.New(capture.Config{
		Enabled:          cfg.Enabled,
		Notify:           cfg.Notify,
		MaxBodySize:      cfg.MaxBodySize,
		RedactHeaders:    cfg.RedactHeaders,
		RedactJSONFields: cfg.RedactJSONFields,
		Platform:         "go",
		TrackerTTL:       cfg.TrackerTTL,
	}, st, log, opts...)

	if len(args) > 0 {
		if err := performRequests(engine, log, args); err != nil {
			return err
		}
		if err := writeExport(engine, cfg); err != nil {
			return err
		}
	}

	if cfg.Listen != "" {
		return serveViewer(engine, met, hub, log, cfg.Listen)
	}
	return nil
}

func buildConfig() *config.Config {
	cfg := config.Default()
	cfg.Enabled = !disabled
	cfg.MaxBodySize = maxBodySize
	cfg.RedactHeaders = redactHeaders
	cfg.RedactJSONFields = redactJSONFields
	cfg.Notify = !noNotify
	cfg.MaxEntries = maxEntries
	cfg.DBPath = dbPath
	cfg.Listen = listen
	cfg.Resolve = resolveAddrs
	cfg.DNSServer = dnsServer
	cfg.Verbose = verbose
	cfg.Quiet = quiet
	cfg.OutputFile = outputFile
	cfg.OutputFormat = outputFormat
	return cfg
}

func openStore(cfg *config.Config, log logger.Logger) (store.Store, error) {
	if cfg.DBPath == "" {
		return store.NewMemory(cfg.MaxEntries), nil
	}
	st, err := store.OpenSQLite(cfg.DBPath, cfg.MaxEntries, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	log.Debug("loaded %d persisted transactions from %s", st.Len(), cfg.DBPath)
	return st, nil
}

func performRequests(engine *capture.Engine, log logger.Logger, urls []string) error {
	client := httpcapture.NewClient(engine)
	for _, url := range urls {
		var body *strings.Reader
		if data != "" {
			body = strings.NewReader(data)
		} else {
			body = strings.NewReader("")
		}
		req, err := http.NewRequest(method, url, body)
		if err != nil {
			return fmt.Errorf("invalid request %s %s: %w", method, url, err)
		}
		for _, hf := range headerFlags {
			name, value, found := strings.Cut(hf, ":")
			if !found {
				return fmt.Errorf("invalid header %q, want 'Name: value'", hf)
			}
			req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
		}

		resp, err := client.Do(req)
		if err != nil {
			// The failure is part of the record; keep going.
			log.Warn("request to %s failed: %v", url, err)
			continue
		}
		resp.Body.Close()
		log.Debug("%s %s -> %d", method, url, resp.StatusCode)
	}
	return nil
}

func writeExport(engine *capture.Engine, cfg *config.Config) error {
	var out string
	switch cfg.OutputFormat {
	case capture.FormatHAR:
		out = engine.ExportAll()
	case capture.FormatCurl, capture.FormatText:
		sections := make([]string, 0)
		for _, rec := range engine.List() {
			rendered, err := engine.Export(rec.ID, cfg.OutputFormat)
			if err != nil {
				return err
			}
			sections = append(sections, rendered)
		}
		out = strings.Join(sections, "\n\n")
	default:
		return fmt.Errorf("unknown export format: %s", cfg.OutputFormat)
	}

	if cfg.OutputFile != "" {
		if err := os.WriteFile(cfg.OutputFile, []byte(out+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	fmt.Println(out)
	return nil
}

func serveViewer(engine *capture.Engine, met *metrics.Metrics, hub *web.Hub, log logger.Logger, addr string) error {
	server, _ := web.NewServer(engine, met, log, addr, hub)

	errCh := make(chan error, 1)
	go func() {
		log.Info("viewer API listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("viewer API failed: %w", err)
	case sig := <-sigCh:
		log.Info("received %v, shutting down", sig)
		return server.Close()
	}
}
