package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scout-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// StorageConfig holds settings for the entity store.
type StorageConfig struct {
	// Path is the SQLite database file, or ":memory:" for an ephemeral store.
	Path string `json:"path" yaml:"path"`
}

// DedupeConfig holds settings for duplicate detection.
type DedupeConfig struct {
	// Threshold is the minimum name-similarity ratio, in [0,1], at which a
	// candidate is treated as a duplicate of a known entity (default 0.85).
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// IngestConfig holds settings for the ingestion pipeline.
type IngestConfig struct {
	// MaxPerRun caps how many entities a single run may admit (default 100).
	MaxPerRun int `json:"max_per_run" yaml:"max_per_run"`

	// MinFitScore is the score floor used by default for "top entities"
	// queries and report highlights (default 40). It does not gate ingestion.
	MinFitScore int `json:"min_fit_score" yaml:"min_fit_score"`
}

// DiscoveryConfig holds settings for the discovery adapters.
type DiscoveryConfig struct {
	HTTPConfig `yaml:",inline"`

	// GoogleAPIKey and GoogleCX enable the Google custom-search adapter.
	GoogleAPIKey string `json:"google_api_key,omitempty" yaml:"google_api_key,omitempty"`
	GoogleCX     string `json:"google_cx,omitempty" yaml:"google_cx,omitempty"`

	// ProductHuntToken enables the product directory adapter.
	ProductHuntToken string `json:"producthunt_token,omitempty" yaml:"producthunt_token,omitempty"`

	// EnableHTMLFallback controls the keyless HTML search adapter, used when
	// no API-backed source is configured (default true).
	EnableHTMLFallback bool `json:"enable_html_fallback" yaml:"enable_html_fallback"`

	// MaxResults is the per-source result cap (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// RequestsPerSecond throttles all adapters through a shared limiter
	// (default 1).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// MaxRetries is the retry budget for rate-limited requests (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ReportsConfig holds settings for run report artifacts.
type ReportsConfig struct {
	// OutputDir is the base directory; each run writes under OutputDir/<runID>/.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// NotifyConfig holds settings for the run-completion e-mail.
type NotifyConfig struct {
	// Enabled turns notification on; when false a no-op notifier is used.
	Enabled bool `json:"enabled" yaml:"enabled"`

	SMTPHost string `json:"smtp_host,omitempty" yaml:"smtp_host,omitempty"`
	SMTPPort int    `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty"`

	// From and To are the sender and recipient addresses. The SMTP password
	// is read from the secrets directory, never from config.
	From     string `json:"from,omitempty" yaml:"from,omitempty"`
	To       string `json:"to,omitempty" yaml:"to,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
}

// WatchConfig holds settings for scheduled spool ingestion.
type WatchConfig struct {
	// Schedule is a cron expression or descriptor (default "@daily").
	Schedule string `json:"schedule" yaml:"schedule"`

	// SpoolDir is scanned for run directories to ingest on each tick.
	SpoolDir string `json:"spool_dir" yaml:"spool_dir"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level"`

	// Mode selects the encoder: "dev" for console output, "prod" for JSON.
	Mode string `json:"mode" yaml:"mode"`
}

// PipelineConfig groups all component configurations for the engine.
type PipelineConfig struct {
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Dedupe    DedupeConfig    `json:"dedupe" yaml:"dedupe"`
	Ingest    IngestConfig    `json:"ingest" yaml:"ingest"`
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Reports   ReportsConfig   `json:"reports" yaml:"reports"`
	Notify    NotifyConfig    `json:"notify" yaml:"notify"`
	Watch     WatchConfig     `json:"watch" yaml:"watch"`
	Log       LogConfig       `json:"log" yaml:"log"`
}
