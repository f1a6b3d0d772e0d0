package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharefile-samples/sharefile-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

// configJSON is the JSON schema for `config show --json`. Secrets are
// reported only as set or unset.
type configJSON struct {
	ConfigPath      string `json:"config_path"`
	Hostname        string `json:"hostname"`
	Username        string `json:"username"`
	ClientID        string `json:"client_id"`
	PasswordSet     bool   `json:"password_set"`
	ClientSecretSet bool   `json:"client_secret_set"`
	APIBaseURL      string `json:"api_base_url,omitempty"`
	UploadMethod    string `json:"upload_method"`
	ChunkSizeBytes  int64  `json:"chunk_size_bytes"`
	ThreadCount     int    `json:"thread_count"`
	Overwrite       bool   `json:"overwrite"`
	LogLevel        string `json:"log_level"`
	LogFormat       string `json:"log_format"`
	ConnectTimeout  string `json:"connect_timeout"`
	DataTimeout     string `json:"data_timeout"`
	MaxRedirects    int    `json:"max_redirects"`
	UserAgent       string `json:"user_agent,omitempty"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if resolvedCfg == nil {
		return fmt.Errorf("no configuration loaded")
	}

	if !flagJSON {
		return config.RenderEffective(resolvedCfg, cmd.OutOrStdout())
	}

	r := resolvedCfg

	return printJSON(cmd.OutOrStdout(), configJSON{
		ConfigPath:      r.ConfigPath,
		Hostname:        r.Account.Hostname,
		Username:        r.Account.Username,
		ClientID:        r.Account.ClientID,
		PasswordSet:     r.Account.Password != "",
		ClientSecretSet: r.Account.ClientSecret != "",
		APIBaseURL:      r.Account.APIBaseURL,
		UploadMethod:    r.Transfers.UploadMethod,
		ChunkSizeBytes:  r.ChunkSizeBytes,
		ThreadCount:     r.Transfers.ThreadCount,
		Overwrite:       r.Transfers.Overwrite,
		LogLevel:        r.Logging.LogLevel,
		LogFormat:       r.Logging.LogFormat,
		ConnectTimeout:  r.ConnectTimeout.String(),
		DataTimeout:     r.DataTimeout.String(),
		MaxRedirects:    r.Network.MaxRedirects,
		UserAgent:       r.Network.UserAgent,
	})
}
