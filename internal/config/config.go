// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for sharefile-go. It supports a
// four-layer override chain (defaults -> config file -> environment -> CLI
// flags). Credentials may come from any layer except CLI flags; passwords
// never appear on a command line.
package config

import "time"

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Account   AccountConfig   `toml:"account"`
	Transfers TransfersConfig `toml:"transfers"`
	Logging   LoggingConfig   `toml:"logging"`
	Network   NetworkConfig   `toml:"network"`
}

// AccountConfig holds the account hostname and password-grant credentials.
// APIBaseURL, when set, replaces the https://{subdomain}.sf-api.com/sf/v3
// base URL derived from the token (useful for proxies and test servers).
type AccountConfig struct {
	Hostname     string `toml:"hostname"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	APIBaseURL   string `toml:"api_base_url"`
}

// TransfersConfig controls uploads. chunk_size "0" splits threaded uploads
// into two halves.
type TransfersConfig struct {
	UploadMethod string `toml:"upload_method"`
	ChunkSize    string `toml:"chunk_size"`
	ThreadCount  int    `toml:"thread_count"`
	Overwrite    bool   `toml:"overwrite"`
}

// LoggingConfig controls log output: level and format.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls HTTP client behavior.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	DataTimeout    string `toml:"data_timeout"`
	UserAgent      string `toml:"user_agent"`
	MaxRedirects   int    `toml:"max_redirects"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to zero value".
type CLIOverrides struct {
	ConfigPath   string  // --config flag (empty = use default)
	Hostname     *string // --hostname
	Username     *string // --username
	UploadMethod *string // put --method
	ChunkSize    *string // put --chunk-size
	ThreadCount  *int    // put --threads
}

// Resolved is the fully merged configuration with durations and sizes
// parsed. It is what the CLI consumes.
type Resolved struct {
	Config

	ConfigPath     string
	ChunkSizeBytes int64
	ConnectTimeout time.Duration
	DataTimeout    time.Duration
}
