package config

// Default values for configuration options. These represent "layer 0" of
// the four-layer override chain.
const (
	defaultUploadMethod   = "standard"
	defaultChunkSize      = "0"
	defaultThreadCount    = 1
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
	defaultConnectTimeout = "10s"
	defaultDataTimeout    = "60s"
	defaultMaxRedirects   = 3
)

// DefaultConfig returns a Config populated with all default values.
// This is used both as the starting point for TOML decoding (so unset
// fields retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Transfers: TransfersConfig{
			UploadMethod: defaultUploadMethod,
			ChunkSize:    defaultChunkSize,
			ThreadCount:  defaultThreadCount,
			Overwrite:    true,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Network: NetworkConfig{
			ConnectTimeout: defaultConnectTimeout,
			DataTimeout:    defaultDataTimeout,
			MaxRedirects:   defaultMaxRedirects,
		},
	}
}
