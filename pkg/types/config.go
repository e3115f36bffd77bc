// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with outbound requests
	// (e.g. "research-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// DiscoveryConfig holds settings for the discovery coordinator and its
// sources.
type DiscoveryConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxPapers is the default merged result bound when a request does
	// not set one (default 20).
	MaxPapers int `json:"max_papers" yaml:"max_papers" mapstructure:"max_papers"`

	// EnableArxiv controls whether the arXiv source is registered.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv" mapstructure:"enable_arxiv"`

	// EnableOpenAlex controls whether the OpenAlex source is registered.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex" mapstructure:"enable_openalex"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	// SourceDelay is the minimum delay between consecutive calls to the
	// same source (default 1s).
	SourceDelay time.Duration `json:"source_delay" yaml:"source_delay" mapstructure:"source_delay"`

	// MaxRetries is the per-source retry budget; a source exceeding it is
	// excluded for the remainder of the request (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ExtractionConfig holds settings for the extraction pipeline.
type ExtractionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Workers bounds per-document extraction parallelism (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// MinTextLength is the minimum character count a tier must produce to
	// count as a success (default 400).
	MinTextLength int `json:"min_text_length" yaml:"min_text_length" mapstructure:"min_text_length"`

	// NativeTool is the command used for structured text extraction
	// (default "pdftotext").
	NativeTool string `json:"native_tool" yaml:"native_tool" mapstructure:"native_tool"`

	// OCRImage is the container image used for image-based extraction.
	// Empty disables the OCR tier.
	OCRImage string `json:"ocr_image,omitempty" yaml:"ocr_image,omitempty" mapstructure:"ocr_image"`

	// WorkDir is the scratch directory for downloaded documents.
	WorkDir string `json:"work_dir" yaml:"work_dir" mapstructure:"work_dir"`
}

// KnowledgeConfig holds settings for the knowledge base store.
type KnowledgeConfig struct {
	// Dir is the base directory for the index database.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of search hits (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// SynthesisConfig holds settings for the synthesis service client.
type SynthesisConfig struct {
	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the API. Normally loaded from
	// .secrets/openai-api-key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the API endpoint, for proxies and tests.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// WorkflowConfig holds settings for the workflow engine.
type WorkflowConfig struct {
	// SufficiencyThreshold is the minimum count of relevant indexed
	// documents below which live discovery is triggered (default 5).
	SufficiencyThreshold int `json:"sufficiency_threshold" yaml:"sufficiency_threshold" mapstructure:"sufficiency_threshold"`

	// SufficiencyK is how many knowledge base hits the checker inspects
	// (default 10).
	SufficiencyK int `json:"sufficiency_k" yaml:"sufficiency_k" mapstructure:"sufficiency_k"`

	// MinRelevance is the relevance cutoff a hit must meet to count
	// toward sufficiency (default 0.35).
	MinRelevance float64 `json:"min_relevance" yaml:"min_relevance" mapstructure:"min_relevance"`

	// RequestTimeout is the total wall-clock bound per request
	// (default 10m). Exceeding it fails the request.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`

	// MaxPipelines bounds concurrently running request pipelines
	// (default 8).
	MaxPipelines int `json:"max_pipelines" yaml:"max_pipelines" mapstructure:"max_pipelines"`

	// ResultTTL is how long terminal request state stays readable
	// (default 24h).
	ResultTTL time.Duration `json:"result_ttl" yaml:"result_ttl" mapstructure:"result_ttl"`
}

// SessionConfig holds settings for session lifecycle.
type SessionConfig struct {
	// TTL is the sliding session expiry window (default 24h).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// ServerConfig holds HTTP-layer settings.
type ServerConfig struct {
	// BindAddr is the listen address (default "0.0.0.0:8080").
	BindAddr string `json:"bind_addr" yaml:"bind_addr" mapstructure:"bind_addr"`

	// MaxUploadBytes bounds multipart upload size (default 32 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// ServiceConfig groups all component configurations. It is read once at
// process start and treated as immutable afterwards.
type ServiceConfig struct {
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Discovery  DiscoveryConfig  `json:"discovery" yaml:"discovery" mapstructure:"discovery"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Knowledge  KnowledgeConfig  `json:"knowledge" yaml:"knowledge" mapstructure:"knowledge"`
	Synthesis  SynthesisConfig  `json:"synthesis" yaml:"synthesis" mapstructure:"synthesis"`
	Workflow   WorkflowConfig   `json:"workflow" yaml:"workflow" mapstructure:"workflow"`
	Session    SessionConfig    `json:"session" yaml:"session" mapstructure:"session"`
}

// DefaultConfig returns the documented defaults for every component.
func DefaultConfig() ServiceConfig {
	return ServiceConfig{
		Server: ServerConfig{
			BindAddr:       "0.0.0.0:8080",
			MaxUploadBytes: 32 << 20,
		},
		Discovery: DiscoveryConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "research-assistant/0.1",
			},
			MaxPapers:      20,
			EnableArxiv:    true,
			EnableOpenAlex: true,
			SourceDelay:    time.Second,
			MaxRetries:     3,
		},
		Extraction: ExtractionConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "research-assistant/0.1",
			},
			Workers:       4,
			MinTextLength: 400,
			NativeTool:    "pdftotext",
			WorkDir:       "data/tmp",
		},
		Knowledge: KnowledgeConfig{
			Dir:        "data/knowledge",
			MaxResults: 20,
		},
		Synthesis: SynthesisConfig{
			Model:      "gpt-4o-mini",
			MaxRetries: 3,
		},
		Workflow: WorkflowConfig{
			SufficiencyThreshold: 5,
			SufficiencyK:         10,
			MinRelevance:         0.35,
			RequestTimeout:       10 * time.Minute,
			MaxPipelines:         8,
			ResultTTL:            24 * time.Hour,
		},
		Session: SessionConfig{
			TTL: 24 * time.Hour,
		},
	}
}
