package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Auth types accepted by auth.type
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthAPIKey = "apikey"
	AuthBasic  = "basic"
	AuthOAuth2 = "oauth2"
	AuthCustom = "custom"
)

// Observability export protocols
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// Config is the DataAPI client configuration.
// The koanf instance is kept for access to keys outside the struct.
type Config struct {
	Client        ClientConfig        `koanf:"client" json:"client" yaml:"client"`
	Retry         RetryConfig         `koanf:"retry" json:"retry" yaml:"retry"`
	RateLimit     RateLimitConfig     `koanf:"ratelimit" json:"ratelimit" yaml:"ratelimit"`
	Auth          AuthConfig          `koanf:"auth" json:"auth" yaml:"auth"`
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability"`

	k *koanf.Koanf
}

// ClientConfig holds the transport settings.
type ClientConfig struct {
	BaseURL   string            `koanf:"baseurl" json:"baseurl" yaml:"baseurl" validate:"required,url"`
	Timeout   time.Duration     `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
	UserAgent string            `koanf:"useragent" json:"useragent" yaml:"useragent"`
	Headers   map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
	// TraceIDHeader carries the per-call request id. Default: X-Request-ID.
	TraceIDHeader string `koanf:"traceidheader" json:"traceidheader" yaml:"traceidheader"`
	// W3CTrace generates a traceparent when no span or parent is present.
	W3CTrace bool `koanf:"w3ctrace" json:"w3ctrace" yaml:"w3ctrace"`
}

// RetryConfig maps onto retry.Policy.
type RetryConfig struct {
	Max        int           `koanf:"max" json:"max" yaml:"max" validate:"gte=0,lte=10"`
	Delay      time.Duration `koanf:"delay" json:"delay" yaml:"delay" validate:"gte=0"`
	MaxDelay   time.Duration `koanf:"maxdelay" json:"maxdelay" yaml:"maxdelay" validate:"gte=0"`
	Jitter     bool          `koanf:"jitter" json:"jitter" yaml:"jitter"`
	RetryAfter time.Duration `koanf:"retryafter" json:"retryafter" yaml:"retryafter" validate:"gte=0"`
}

// RateLimitConfig enables client side throttling when RPS is positive.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps" json:"rps" yaml:"rps" validate:"gte=0"`
	Burst int     `koanf:"burst" json:"burst" yaml:"burst" validate:"gte=0"`
}

// AuthConfig selects and parameterizes the authentication provider.
type AuthConfig struct {
	Type         string            `koanf:"type" json:"type" yaml:"type" validate:"oneof=none bearer apikey basic oauth2 custom"`
	Token        string            `koanf:"token" json:"token" yaml:"token"`
	RefreshToken string            `koanf:"refreshtoken" json:"refreshtoken" yaml:"refreshtoken"`
	ExpiresIn    time.Duration     `koanf:"expiresin" json:"expiresin" yaml:"expiresin" validate:"gte=0"`
	APIKey       string            `koanf:"apikey" json:"apikey" yaml:"apikey"`
	Header       string            `koanf:"header" json:"header" yaml:"header"`
	Username     string            `koanf:"username" json:"username" yaml:"username"`
	Password     string            `koanf:"password" json:"password" yaml:"password"`
	Headers      map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
	OAuth2       OAuth2Config      `koanf:"oauth2" json:"oauth2" yaml:"oauth2"`
}

// OAuth2Config configures token refresh against an OAuth2 token endpoint.
type OAuth2Config struct {
	ClientID     string   `koanf:"clientid" json:"clientid" yaml:"clientid"`
	ClientSecret string   `koanf:"clientsecret" json:"clientsecret" yaml:"clientsecret"`
	TokenURL     string   `koanf:"tokenurl" json:"tokenurl" yaml:"tokenurl" validate:"omitempty,url"`
	Scopes       []string `koanf:"scopes" json:"scopes" yaml:"scopes"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty          bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
	Payloads        bool   `koanf:"payloads" json:"payloads" yaml:"payloads"`
	MaxPayloadBytes int    `koanf:"maxpayloadbytes" json:"maxpayloadbytes" yaml:"maxpayloadbytes" validate:"gte=0"`
}

// ObservabilityConfig controls OpenTelemetry export.
type ObservabilityConfig struct {
	Enabled     bool          `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Service     string        `koanf:"service" json:"service" yaml:"service"`
	Version     string        `koanf:"version" json:"version" yaml:"version"`
	Environment string        `koanf:"environment" json:"environment" yaml:"environment"`
	// Endpoint is an OTLP collector address, or "stdout" to print spans and metrics.
	Endpoint    string        `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Protocol    string        `koanf:"protocol" json:"protocol" yaml:"protocol" validate:"omitempty,oneof=http grpc"`
	Insecure    bool          `koanf:"insecure" json:"insecure" yaml:"insecure"`
	SampleRate  float64       `koanf:"samplerate" json:"samplerate" yaml:"samplerate" validate:"gte=0,lte=1"`
	Interval    time.Duration `koanf:"interval" json:"interval" yaml:"interval" validate:"gte=0"`
}
