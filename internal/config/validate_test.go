package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestValidate_Table(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"bad upload method", func(c *Config) { c.Transfers.UploadMethod = "ftp" }, "upload_method"},
		{"bad chunk size", func(c *Config) { c.Transfers.ChunkSize = "lots" }, "chunk_size"},
		{"too many threads", func(c *Config) { c.Transfers.ThreadCount = 17 }, "thread_count"},
		{"bad log format", func(c *Config) { c.Logging.LogFormat = "xml" }, "log_format"},
		{"bad connect timeout", func(c *Config) { c.Network.ConnectTimeout = "soon" }, "connect_timeout"},
		{"short data timeout", func(c *Config) { c.Network.DataTimeout = "1s" }, "data_timeout"},
		{"zero redirects", func(c *Config) { c.Network.MaxRedirects = 0 }, "max_redirects"},
		{"relative api url", func(c *Config) { c.Account.APIBaseURL = "/sf/v3" }, "api_base_url"},
		{"hostname with path", func(c *Config) { c.Account.Hostname = "acme.sharefile.com/x" }, "hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestValidate_HostnameWithScheme(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Account.Hostname = "http://127.0.0.1:8080"
	cfg.Account.APIBaseURL = "http://127.0.0.1:8080/sf/v3"

	require.NoError(t, Validate(cfg))
}

func TestValidateCredentials(t *testing.T) {
	err := ValidateCredentials(&AccountConfig{Hostname: "acme.sharefile.com", Username: "u"})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "client_id")
	assert.Contains(t, msg, "client_secret")
	assert.Contains(t, msg, "password")
	assert.NotContains(t, msg, "hostname")

	require.NoError(t, ValidateCredentials(&AccountConfig{
		Hostname: "h", ClientID: "c", ClientSecret: "s", Username: "u", Password: "p",
	}))
}
