package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Verify account credentials with a password grant",
		Long: `Authenticate against the account's OAuth endpoint and report the API host
the account is served from. The token is held in memory only; every other
command authenticates again.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
}

// loginOutput is the JSON schema for `login --json`.
type loginOutput struct {
	Subdomain       string `json:"subdomain"`
	Hostname        string `json:"hostname"`
	APIControlPlane string `json:"apicp,omitempty"`
	AppControlPlane string `json:"appcp,omitempty"`
	Expiry          string `json:"expiry,omitempty"`
}

func runLogin(cmd *cobra.Command, _ []string) error {
	sess, err := newSession(cmd.Context())
	if err != nil {
		return err
	}

	sess.Logger.Info("login successful", "subdomain", sess.Token.Subdomain)

	out := loginOutput{
		Subdomain:       sess.Token.Subdomain,
		Hostname:        sess.Token.Hostname(),
		APIControlPlane: sess.Token.APIControlPlane,
		AppControlPlane: sess.Token.AppControlPlane,
	}

	if !sess.Token.Expiry.IsZero() {
		out.Expiry = sess.Token.Expiry.UTC().Format(time.RFC3339)
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), out)
	}

	printLoginText(cmd.OutOrStdout(), &out)

	return nil
}

func printLoginText(w io.Writer, out *loginOutput) {
	fmt.Fprintf(w, "Subdomain: %s\n", out.Subdomain)
	fmt.Fprintf(w, "API host:  %s\n", out.Hostname)

	if out.Expiry != "" {
		fmt.Fprintf(w, "Expires:   %s\n", out.Expiry)
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}
