package config

import (
	"fmt"
	"io"
)

const redacted = "********"

// RenderEffective writes the resolved configuration as a human-readable
// annotated summary to w. Secrets are redacted.
func RenderEffective(r *Resolved, w io.Writer) error {
	ew := &errWriter{w: w}

	if r.ConfigPath != "" {
		ew.printf("# Effective configuration (file: %s)\n\n", r.ConfigPath)
	} else {
		ew.printf("# Effective configuration\n\n")
	}

	renderAccountSection(ew, &r.Account)
	renderTransfersSection(ew, r)
	renderLoggingSection(ew, &r.Logging)
	renderNetworkSection(ew, &r.Network)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, so callers can chain
// printf calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func secret(v string) string {
	if v == "" {
		return ""
	}

	return redacted
}

func renderAccountSection(ew *errWriter, a *AccountConfig) {
	ew.printf("[account]\n")
	ew.printf("  hostname      = %q\n", a.Hostname)
	ew.printf("  username      = %q\n", a.Username)
	ew.printf("  password      = %q\n", secret(a.Password))
	ew.printf("  client_id     = %q\n", a.ClientID)
	ew.printf("  client_secret = %q\n", secret(a.ClientSecret))

	if a.APIBaseURL != "" {
		ew.printf("  api_base_url  = %q\n", a.APIBaseURL)
	}

	ew.printf("\n")
}

func renderTransfersSection(ew *errWriter, r *Resolved) {
	ew.printf("[transfers]\n")
	ew.printf("  upload_method = %q\n", r.Transfers.UploadMethod)

	if r.ChunkSizeBytes == 0 {
		ew.printf("  chunk_size    = %q  # two halves\n", r.Transfers.ChunkSize)
	} else {
		ew.printf("  chunk_size    = %q  # %d bytes\n", r.Transfers.ChunkSize, r.ChunkSizeBytes)
	}

	ew.printf("  thread_count  = %d\n", r.Transfers.ThreadCount)
	ew.printf("  overwrite     = %t\n", r.Transfers.Overwrite)
	ew.printf("\n")
}

func renderLoggingSection(ew *errWriter, l *LoggingConfig) {
	ew.printf("[logging]\n")
	ew.printf("  log_level  = %q\n", l.LogLevel)
	ew.printf("  log_format = %q\n", l.LogFormat)
	ew.printf("\n")
}

func renderNetworkSection(ew *errWriter, n *NetworkConfig) {
	ew.printf("[network]\n")
	ew.printf("  connect_timeout = %q\n", n.ConnectTimeout)
	ew.printf("  data_timeout    = %q\n", n.DataTimeout)
	ew.printf("  max_redirects   = %d\n", n.MaxRedirects)

	if n.UserAgent != "" {
		ew.printf("  user_agent      = %q\n", n.UserAgent)
	}
}
