package model

import "time"

// Config is the complete trustbrowser configuration
type Config struct {
	Graph        GraphConfig        `yaml:"graph"`
	Current      CurrentConfig      `yaml:"current"`
	Proxy        ProxyConfig        `yaml:"proxy"`
	HTTP         HTTPConfig         `yaml:"http"`
	LLM          LLMConfig          `yaml:"llm"`
	Chain        ChainConfig        `yaml:"chain"`
	Signals      SignalsConfig      `yaml:"signals"`
	PNS          PNSConfig          `yaml:"pns"`
	Session      SessionConfig      `yaml:"session"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting"`
}

// GraphConfig configures the LEGACY (SPARQL-style) graph API
type GraphConfig struct {
	PrimaryHost   string   `yaml:"primary_host"`   // Preferred node, empty means use OverrideHost
	OverrideHost  string   `yaml:"override_host"`  // Used when PrimaryHost is unset
	FallbackHosts []string `yaml:"fallback_hosts"` // Tried after the primary (and proxy) in order
	Port          string   `yaml:"port"`           // Empty: 443 for tunnel hosts, 8900 otherwise
	APIVersions   []string `yaml:"api_versions"`   // Version path candidates, e.g. /api/v1, /v1
	ExplorerBase  string   `yaml:"explorer_base"`  // Empty: primary host, else first fallback
}

// CurrentConfig configures the CURRENT graph API
type CurrentConfig struct {
	PrimaryHost    string        `yaml:"primary_host"`
	PublicHost     string        `yaml:"public_host"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"` // Bound on every single attempt
	ExplorerBase   string        `yaml:"explorer_base"`   // Empty: public host
}

// ProxyConfig configures the local proxy mode used by the browser shell
type ProxyConfig struct {
	Enabled            bool   `yaml:"enabled"`
	LegacyPrefix       string `yaml:"legacy_prefix"`
	CurrentPrimaryPath string `yaml:"current_primary_path"`
	CurrentPublicPath  string `yaml:"current_public_path"`
	BaseURL            string `yaml:"base_url"` // Origin the relative proxy paths are resolved against
}

// HTTPConfig contains HTTP client settings
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty"`
	NoProxy       string        `yaml:"no_proxy,omitempty"`
	RespectRobots bool          `yaml:"respect_robots"`
}

// LLMConfig configures the generative collaborator
type LLMConfig struct {
	Provider  string `yaml:"provider"` // gemini, openai, anthropic, ollama, or empty to disable
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"` // Never written to disk
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// ChainConfig configures read-only contract calls
type ChainConfig struct {
	RPCURL                     string `yaml:"rpc_url"`
	RandomSamplingAddress      string `yaml:"random_sampling_address"`
	ContentAssetStorageAddress string `yaml:"content_asset_storage_address"`
}

// SignalsConfig holds the signal values not yet derived from live data
type SignalsConfig struct {
	PublisherCommitment float64 `yaml:"publisher_commitment"`
	ParanetCuration     float64 `yaml:"paranet_curation"`
}

// PNSConfig configures reverse name resolution
type PNSConfig struct {
	APIURL string `yaml:"api_url"`
}

// SessionConfig configures tab persistence
type SessionConfig struct {
	Dir          string        `yaml:"dir"`
	TTL          time.Duration `yaml:"ttl"`
	HistoryLimit int           `yaml:"history_limit"`
}

// ConcurrencyConfig contains batch concurrency settings
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitingConfig limits outbound requests per backend host in batch mode
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// Default values for the placeholder signals
const (
	DefaultPublisherCommitment = 0.3
	DefaultParanetCuration     = 0.2
)

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			OverrideHost: "https://ping-framework-motorcycles-incl.trycloudflare.com",
			FallbackHosts: []string{
				"https://v6-pegasus-node-02.origin-trail.network",
				"https://v6-pegasus-node-03.origin-trail.network",
			},
			APIVersions: []string{"/api/v1", "/v1"},
		},
		Current: CurrentConfig{
			PrimaryHost:    "https://ping-framework-motorcycles-incl.trycloudflare.com",
			PublicHost:     "https://testnetv7.origintrail.io",
			AttemptTimeout: 6 * time.Second,
		},
		Proxy: ProxyConfig{
			LegacyPrefix:       "/api",
			CurrentPrimaryPath: "/v7",
			CurrentPublicPath:  "/v7pub",
			BaseURL:            "http://localhost:5173",
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "TrustBrowser/0.1 (+https://github.com/ppiankov/trustbrowser)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		LLM: LLMConfig{
			Model:     "gemini-2.5-flash",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Signals: SignalsConfig{
			PublisherCommitment: DefaultPublisherCommitment,
			ParanetCuration:     DefaultParanetCuration,
		},
		PNS: PNSConfig{
			APIURL: "https://api.ddns.so",
		},
		Session: SessionConfig{
			TTL:          7 * 24 * time.Hour,
			HistoryLimit: 20,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
	}
}
