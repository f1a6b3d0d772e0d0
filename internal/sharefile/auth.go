package sharefile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Authentication errors.
var (
	ErrAuthFailed       = errors.New("sharefile: authentication failed")
	ErrNotAuthenticated = errors.New("sharefile: not authenticated")
)

// apiDomain is appended to the token's subdomain to form the API hostname.
const apiDomain = "sf-api.com"

// AuthConfig holds the password-grant credentials. Hostname is the account
// hostname, e.g. "example.sharefile.com"; a scheme may be included to point
// at a non-TLS endpoint.
type AuthConfig struct {
	Hostname     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Token is the in-memory result of a successful authentication. It lives for
// the process lifetime and is never written to disk or refreshed.
type Token struct {
	AccessToken     string
	RefreshToken    string
	Subdomain       string
	APIControlPlane string
	AppControlPlane string
	Expiry          time.Time
}

// Token implements TokenSource.
func (t *Token) Token() (string, error) {
	if t == nil || t.AccessToken == "" {
		return "", ErrNotAuthenticated
	}

	return t.AccessToken, nil
}

// Hostname returns the API hostname derived from the token's subdomain.
func (t *Token) Hostname() string {
	return t.Subdomain + "." + apiDomain
}

// TokenURL returns the OAuth token endpoint for an account hostname.
func TokenURL(hostname string) string {
	return hostURL(hostname) + "/oauth/token"
}

// APIBaseURL returns the v3 API base URL for an API hostname.
func APIBaseURL(hostname string) string {
	return hostURL(hostname) + APIPath
}

func hostURL(hostname string) string {
	hostname = strings.TrimSuffix(hostname, "/")
	if strings.HasPrefix(hostname, "http://") || strings.HasPrefix(hostname, "https://") {
		return hostname
	}

	return "https://" + hostname
}

// Authenticate performs the OAuth2 password grant against the account's
// token endpoint. Client credentials travel in the form body. There is no
// retry: a rejected grant fails with ErrAuthFailed.
func Authenticate(ctx context.Context, httpClient *http.Client, cfg AuthConfig, logger *slog.Logger) (*Token, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  TokenURL(cfg.Hostname),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	logger.Debug("requesting token",
		slog.String("hostname", cfg.Hostname),
		slog.String("username", cfg.Username),
	)

	tok, err := oc.PasswordCredentialsToken(ctx, cfg.Username, cfg.Password)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
		}

		return nil, fmt.Errorf("sharefile: token request: %w", err)
	}

	result := &Token{
		AccessToken:     tok.AccessToken,
		RefreshToken:    tok.RefreshToken,
		Subdomain:       extraString(tok, "subdomain"),
		APIControlPlane: extraString(tok, "apicp"),
		AppControlPlane: extraString(tok, "appcp"),
		Expiry:          tok.Expiry,
	}

	if result.Subdomain == "" {
		return nil, fmt.Errorf("%w: token response has no subdomain", ErrAuthFailed)
	}

	logger.Info("authenticated",
		slog.String("subdomain", result.Subdomain),
		slog.String("api_hostname", result.Hostname()),
	)

	return result, nil
}

func extraString(tok *oauth2.Token, key string) string {
	v, ok := tok.Extra(key).(string)
	if !ok {
		return ""
	}

	return v
}
