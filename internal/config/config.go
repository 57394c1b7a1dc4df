package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Defaults for the recorder configuration.
const (
	DefaultMaxBodySize = 131072
	DefaultMaxEntries  = 1000
	DefaultTrackerTTL  = 10 * time.Minute
)

// DefaultRedactHeaders are the header names redacted when unconfigured.
var DefaultRedactHeaders = []string{"authorization", "cookie"}

// DefaultRedactJSONFields are the JSON field names redacted when unconfigured.
var DefaultRedactJSONFields = []string{"password", "token"}

// Config holds the application configuration
type Config struct {
	// Engine settings
	Enabled          bool
	MaxBodySize      int      // Maximum stored body size (bytes)
	RedactHeaders    []string // Header names to redact (case-insensitive)
	RedactJSONFields []string // Top-level JSON field names to redact
	Notify           bool     // Invoke the notifier on finish
	MaxEntries       int      // Bounded history size
	TrackerTTL       time.Duration

	// Durability
	DBPath string // sqlite database path; empty = in-memory only

	// Viewer API
	Listen string // listen address for the viewer HTTP API; empty = off

	// Enrichment
	Resolve   bool   // resolve server addresses for HAR export
	DNSServer string // DNS server for lookups (host:port)

	// Output
	Verbose      bool
	Quiet        bool
	OutputFile   string // File to save export output
	OutputFormat string // Export format: curl, text, har
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Enabled:          true,
		MaxBodySize:      DefaultMaxBodySize,
		RedactHeaders:    DefaultRedactHeaders,
		RedactJSONFields: DefaultRedactJSONFields,
		Notify:           true,
		MaxEntries:       DefaultMaxEntries,
		TrackerTTL:       DefaultTrackerTTL,
		OutputFormat:     "har",
	}
}

// FileConfig represents the configuration file structure with JSON tags.
// Pointer fields distinguish "unset" from zero values.
type FileConfig struct {
	Enabled          *bool     `json:"enabled,omitempty"`
	MaxBodySize      *int      `json:"max_body_size,omitempty"`
	RedactHeaders    *[]string `json:"redact_headers,omitempty"`
	RedactJSONFields *[]string `json:"redact_json_fields,omitempty"`
	Notify           *bool     `json:"notify,omitempty"`
	MaxEntries       *int      `json:"max_entries,omitempty"`
	TrackerTTLSec    *int      `json:"tracker_ttl_seconds,omitempty"`
	DBPath           *string   `json:"db_path,omitempty"`
	Listen           *string   `json:"listen,omitempty"`
	Resolve          *bool     `json:"resolve,omitempty"`
	DNSServer        *string   `json:"dns_server,omitempty"`
	Verbose          *bool     `json:"verbose,omitempty"`
	Quiet            *bool     `json:"quiet,omitempty"`
	OutputFile       *string   `json:"output_file,omitempty"`
	OutputFormat     *string   `json:"output_format,omitempty"`
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "httpledger")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "httpledger")
	}
	return ".httpledger"
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.json")
}

// GetDefaultDBPath returns the default sqlite database path
func GetDefaultDBPath() string {
	return filepath.Join(GetConfigDir(), "httpledger.db")
}

// LoadConfigFile loads configuration from a JSON file. A missing file
// yields an empty FileConfig, not an error.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileConfig{}, nil
		}
		return nil, err
	}

	var config FileConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// MergeWithFileConfig merges file configuration into c. Values already
// changed from their defaults (i.e. set on the command line) win.
func (c *Config) MergeWithFileConfig(fileConfig *FileConfig) {
	if fileConfig.Enabled != nil && c.Enabled {
		c.Enabled = *fileConfig.Enabled
	}
	if fileConfig.MaxBodySize != nil && c.MaxBodySize == DefaultMaxBodySize {
		c.MaxBodySize = *fileConfig.MaxBodySize
	}
	if fileConfig.RedactHeaders != nil && equalStrings(c.RedactHeaders, DefaultRedactHeaders) {
		c.RedactHeaders = *fileConfig.RedactHeaders
	}
	if fileConfig.RedactJSONFields != nil && equalStrings(c.RedactJSONFields, DefaultRedactJSONFields) {
		c.RedactJSONFields = *fileConfig.RedactJSONFields
	}
	if fileConfig.Notify != nil && c.Notify {
		c.Notify = *fileConfig.Notify
	}
	if fileConfig.MaxEntries != nil && c.MaxEntries == DefaultMaxEntries {
		c.MaxEntries = *fileConfig.MaxEntries
	}
	if fileConfig.TrackerTTLSec != nil && c.TrackerTTL == DefaultTrackerTTL {
		c.TrackerTTL = time.Duration(*fileConfig.TrackerTTLSec) * time.Second
	}
	if fileConfig.DBPath != nil && c.DBPath == "" {
		c.DBPath = *fileConfig.DBPath
	}
	if fileConfig.Listen != nil && c.Listen == "" {
		c.Listen = *fileConfig.Listen
	}
	if fileConfig.Resolve != nil && !c.Resolve {
		c.Resolve = *fileConfig.Resolve
	}
	if fileConfig.DNSServer != nil && c.DNSServer == "" {
		c.DNSServer = *fileConfig.DNSServer
	}
	if fileConfig.Verbose != nil && !c.Verbose {
		c.Verbose = *fileConfig.Verbose
	}
	if fileConfig.Quiet != nil && !c.Quiet {
		c.Quiet = *fileConfig.Quiet
	}
	if fileConfig.OutputFile != nil && c.OutputFile == "" {
		c.OutputFile = *fileConfig.OutputFile
	}
	if fileConfig.OutputFormat != nil && c.OutputFormat == "har" {
		c.OutputFormat = *fileConfig.OutputFormat
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
