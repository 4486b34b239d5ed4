package transport

// Config holds configuration for the BitSight API client.
type Config struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string `mapstructure:"base_url" default:"https://api.bitsighttech.com"`
	// APIKey is sent as the Basic auth username with an empty password.
	APIKey string `mapstructure:"key" default:""`
	// TimeoutSeconds bounds connect, TLS handshake and response header waits.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
	// VerifySSL toggles TLS certificate verification.
	VerifySSL bool `mapstructure:"verify_ssl" default:"true"`
	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" default:"0"`
	// PageSize is the limit parameter used for paginated endpoints.
	PageSize int `mapstructure:"page_size" default:"100"`
	// Proxy is the optional outbound proxy.
	Proxy ProxyConfig `mapstructure:"proxy"`
}

// ProxyConfig holds the outbound proxy settings.
type ProxyConfig struct {
	// URL is the proxy address (http or https scheme).
	URL string `mapstructure:"url" default:""`
	// Username is the proxy user. Requires Password.
	Username string `mapstructure:"username" default:""`
	// Password is the proxy password. Requires Username.
	Password string `mapstructure:"password" default:""`
}
