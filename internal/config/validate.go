package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Validation range constants.
const (
	minThreadCount    = 1
	maxThreadCount    = 16
	minMaxRedirects   = 1
	maxMaxRedirects   = 10
	minConnectTimeout = 1 * time.Second
	minDataTimeout    = 5 * time.Second
)

// UploadMethods lists the accepted upload_method values.
var UploadMethods = []string{"standard", "raw", "threaded", "threaded_multipart"}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"auto", "text", "json"}
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateAccount(&cfg.Account)...)
	errs = append(errs, validateTransfers(&cfg.Transfers)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)

	return errors.Join(errs...)
}

// ValidateCredentials checks that everything the password grant needs is
// present. It is separate from Validate so commands like "config show" work
// without credentials.
func ValidateCredentials(a *AccountConfig) error {
	var errs []error

	required := []struct {
		key, value string
	}{
		{"hostname", a.Hostname},
		{"client_id", a.ClientID},
		{"client_secret", a.ClientSecret},
		{"username", a.Username},
		{"password", a.Password},
	}

	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s: must be set (config file or environment)", r.key))
		}
	}

	return errors.Join(errs...)
}

func validateAccount(a *AccountConfig) []error {
	var errs []error

	if strings.ContainsAny(a.Hostname, " /?#") && !strings.Contains(a.Hostname, "://") {
		errs = append(errs, fmt.Errorf("hostname: %q is not a host name", a.Hostname))
	}

	if a.APIBaseURL != "" {
		u, err := url.Parse(a.APIBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("api_base_url: must be an absolute http(s) URL, got %q", a.APIBaseURL))
		}
	}

	return errs
}

func validateTransfers(t *TransfersConfig) []error {
	var errs []error

	if !slices.Contains(UploadMethods, t.UploadMethod) {
		errs = append(errs, fmt.Errorf("upload_method: must be one of %s, got %q",
			strings.Join(UploadMethods, ", "), t.UploadMethod))
	}

	if _, err := ParseSize(t.ChunkSize); err != nil {
		errs = append(errs, fmt.Errorf("chunk_size: %w", err))
	}

	if t.ThreadCount < minThreadCount || t.ThreadCount > maxThreadCount {
		errs = append(errs, fmt.Errorf("thread_count: must be between %d and %d, got %d",
			minThreadCount, maxThreadCount, t.ThreadCount))
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !slices.Contains(validLogLevels, l.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level: must be one of %s, got %q",
			strings.Join(validLogLevels, ", "), l.LogLevel))
	}

	if !slices.Contains(validLogFormats, l.LogFormat) {
		errs = append(errs, fmt.Errorf("log_format: must be one of %s, got %q",
			strings.Join(validLogFormats, ", "), l.LogFormat))
	}

	return errs
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	errs = append(errs, validateDuration("connect_timeout", n.ConnectTimeout, minConnectTimeout)...)
	errs = append(errs, validateDuration("data_timeout", n.DataTimeout, minDataTimeout)...)

	if n.MaxRedirects < minMaxRedirects || n.MaxRedirects > maxMaxRedirects {
		errs = append(errs, fmt.Errorf("max_redirects: must be between %d and %d, got %d",
			minMaxRedirects, maxMaxRedirects, n.MaxRedirects))
	}

	return errs
}

func validateDuration(key, value string, minimum time.Duration) []error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", key, value, err)}
	}

	if d < minimum {
		return []error{fmt.Errorf("%s: must be at least %s, got %s", key, minimum, d)}
	}

	return nil
}
