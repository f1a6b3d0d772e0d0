package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig       = "SHAREFILE_GO_CONFIG"
	EnvHostname     = "SHAREFILE_GO_HOSTNAME"
	EnvUsername     = "SHAREFILE_GO_USERNAME"
	EnvPassword     = "SHAREFILE_GO_PASSWORD"
	EnvClientID     = "SHAREFILE_GO_CLIENT_ID"
	EnvClientSecret = "SHAREFILE_GO_CLIENT_SECRET"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath   string
	Hostname     string
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; Resolve applies the non-empty fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:   os.Getenv(EnvConfig),
		Hostname:     os.Getenv(EnvHostname),
		Username:     os.Getenv(EnvUsername),
		Password:     os.Getenv(EnvPassword),
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
	}
}

func (e EnvOverrides) apply(a *AccountConfig) {
	setIfNonEmpty(&a.Hostname, e.Hostname)
	setIfNonEmpty(&a.Username, e.Username)
	setIfNonEmpty(&a.Password, e.Password)
	setIfNonEmpty(&a.ClientID, e.ClientID)
	setIfNonEmpty(&a.ClientSecret, e.ClientSecret)
}

func setIfNonEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
