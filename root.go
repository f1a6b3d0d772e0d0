package main

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sharefile-samples/sharefile-go/internal/config"
	"github.com/sharefile-samples/sharefile-go/internal/sharefile"
)

// version is overridden with -ldflags "-X main.version=...".
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagHostname   string
	flagUsername   string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg is filled in by the root PersistentPreRunE before any RunE.
var resolvedCfg *config.Resolved

// Local flag names that feed the config override chain.
const (
	flagNameMethod    = "method"
	flagNameChunkSize = "chunk-size"
	flagNameThreads   = "threads"
)

// newRootCmd assembles the command tree. Tests call it once per run so flag
// state never leaks between invocations.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sharefile-go",
		Short:   "ShareFile CLI client",
		Long:    "A command-line client for the ShareFile v3 REST API.",
		Version: version,
		// Errors are printed by exitOnError.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagHostname, "hostname", "", "account hostname (e.g., acme.sharefile.com)")
	cmd.PersistentFlags().StringVar(&flagUsername, "username", "", "account user name")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newStatCmd())
	cmd.AddCommand(newFolderCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newRmCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newClientsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig layers defaults, the TOML file, SHAREFILE_GO_* variables and
// explicitly set flags, then stores the result in resolvedCfg.
func loadConfig(cmd *cobra.Command) error {
	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
	}

	// Only explicitly set flags override lower layers.
	if cmd.Flags().Changed("hostname") {
		cli.Hostname = &flagHostname
	}

	if cmd.Flags().Changed("username") {
		cli.Username = &flagUsername
	}

	if f := cmd.Flags().Lookup(flagNameMethod); f != nil && f.Changed {
		v := f.Value.String()
		cli.UploadMethod = &v
	}

	if f := cmd.Flags().Lookup(flagNameChunkSize); f != nil && f.Changed {
		v := f.Value.String()
		cli.ChunkSize = &v
	}

	if f := cmd.Flags().Lookup(flagNameThreads); f != nil && f.Changed {
		n, err := strconv.Atoi(f.Value.String())
		if err != nil {
			return fmt.Errorf("--%s: %w", flagNameThreads, err)
		}

		cli.ThreadCount = &n
	}

	resolved, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = resolved

	return nil
}

// buildLogger logs to stderr at the configured level; -v and -q take
// precedence over log_level.
func buildLogger() *slog.Logger {
	return newLogger(os.Stderr)
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	format := "auto"

	if resolvedCfg != nil {
		switch resolvedCfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}

		format = resolvedCfg.Logging.LogFormat
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if useJSONLogs(format, w) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// useJSONLogs reports whether the JSON handler should be used. "auto" picks
// text on a terminal and JSON otherwise.
func useJSONLogs(format string, w io.Writer) bool {
	switch format {
	case "json":
		return true
	case "text":
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return true
	}

	fd := f.Fd()

	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// newHTTPClient builds an HTTP client honoring the network settings. A zero
// timeout leaves the overall request unbounded, for transfers.
func newHTTPClient(r *config.Resolved, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: r.ConnectTimeout}

	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:errcheck,forcetypeassert // stdlib default
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = r.ConnectTimeout

	return &http.Client{
		Timeout:       timeout,
		Transport:     transport,
		CheckRedirect: sharefile.RedirectPolicy(r.Network.MaxRedirects),
	}
}

// statusf writes a progress line to stderr; -q silences it.
func statusf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// exitOnError reports err on stderr and exits with status 1.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
