package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sharefile-samples/sharefile-go/internal/config"
	"github.com/sharefile-samples/sharefile-go/internal/sharefile"
	"github.com/sharefile-samples/sharefile-go/internal/transfer"
)

// Session holds the clients for one authenticated run of the CLI. The token
// lives only in memory and is discarded when the process exits.
type Session struct {
	Client   *sharefile.Client // metadata ops (data timeout)
	Transfer *sharefile.Client // uploads/downloads (no overall timeout)
	Token    *sharefile.Token
	Files    *transfer.Manager
	Logger   *slog.Logger
}

// NewSession authenticates with the resolved account and builds the
// metadata and transfer clients against the account's API host.
func NewSession(ctx context.Context, resolved *config.Resolved, logger *slog.Logger) (*Session, error) {
	if err := config.ValidateCredentials(&resolved.Account); err != nil {
		return nil, fmt.Errorf("incomplete account settings: %w", err)
	}

	metaHTTP := newHTTPClient(resolved, resolved.DataTimeout)

	tok, err := sharefile.Authenticate(ctx, metaHTTP, authConfig(&resolved.Account), logger)
	if err != nil {
		return nil, err
	}

	baseURL := resolved.Account.APIBaseURL
	if baseURL == "" {
		baseURL = sharefile.APIBaseURL(tok.Hostname())
	}

	logger.Debug("session ready",
		slog.String("api_base_url", baseURL),
		slog.String("subdomain", tok.Subdomain),
	)

	userAgent := resolved.Network.UserAgent
	client := sharefile.NewClient(baseURL, metaHTTP, tok, logger, userAgent)
	xfer := sharefile.NewClient(baseURL, newHTTPClient(resolved, 0), tok, logger, userAgent)

	return &Session{
		Client:   client,
		Transfer: xfer,
		Token:    tok,
		Files:    transfer.NewManager(xfer, xfer, logger),
		Logger:   logger,
	}, nil
}

func authConfig(a *config.AccountConfig) sharefile.AuthConfig {
	return sharefile.AuthConfig{
		Hostname:     a.Hostname,
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		Username:     a.Username,
		Password:     a.Password,
	}
}

// newSession is the command-side entry point: it builds the logger and
// session from the globally resolved config.
func newSession(ctx context.Context) (*Session, error) {
	if resolvedCfg == nil {
		return nil, fmt.Errorf("no configuration loaded")
	}

	return NewSession(ctx, resolvedCfg, buildLogger())
}
