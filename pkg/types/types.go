// Package types defines core types shared across the routing layer.
package types

import (
	"time"
)

// ProviderID identifies one of the fixed upstream LLM providers.
type ProviderID string

const (
	ProviderOpenAI  ProviderID = "openai"
	ProviderClaude  ProviderID = "claude"
	ProviderGemini  ProviderID = "gemini"
	ProviderMistral ProviderID = "mistral"
	ProviderCohere  ProviderID = "cohere"
)

// AllProviders returns the fixed provider enumeration in canonical order.
// The order is load-bearing: the weighted walk and the default fallback
// list both iterate it.
func AllProviders() []ProviderID {
	return []ProviderID{
		ProviderOpenAI,
		ProviderClaude,
		ProviderGemini,
		ProviderMistral,
		ProviderCohere,
	}
}

// Valid reports whether the id names a known provider.
func (p ProviderID) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderClaude, ProviderGemini, ProviderMistral, ProviderCohere:
		return true
	}
	return false
}

func (p ProviderID) String() string {
	return string(p)
}

// Message represents a single message in the conversation.
type Message struct {
	Role    string `json:"role" binding:"required,oneof=system user assistant"` // system, user, assistant
	Content string `json:"content" binding:"required"`
}

// IntentType is the coarse task category inferred from prompt text.
type IntentType string

const (
	IntentTable      IntentType = "table"
	IntentResearch   IntentType = "research"
	IntentCode       IntentType = "code"
	IntentDocument   IntentType = "document"
	IntentSummary    IntentType = "summary"
	IntentStatistics IntentType = "statistics"
	IntentGeneral    IntentType = "general"
)

// Intent is the per-request classification result. It only biases provider
// choice; a request is never rejected based on its intent.
type Intent struct {
	Type              IntentType `json:"type"`
	Confidence        float64    `json:"confidence"`
	PreferredProvider ProviderID `json:"preferred_provider,omitempty"` // empty when no mapping exists
}

// RoutingResult is produced once per successful routed call.
type RoutingResult struct {
	Provider     ProviderID `json:"provider"`
	ResponseText string     `json:"response_text"`
	Intent       Intent     `json:"intent"`
}

// ProviderInfo is one row of the provider registry as seen by the routing
// core: identity, selection weight, activity flag, and the decrypted
// credential material needed to call upstream.
type ProviderInfo struct {
	ID            ProviderID
	Weight        float64
	IsActive      bool
	APIKey        string
	KeyGeneration int64 // bumped whenever the backing credential changes
	BaseURL       string
	Model         string
}

// CallOptions carries optional tuning parameters for an upstream call.
type CallOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// RespondOptions controls a single orchestrated request.
type RespondOptions struct {
	// FallbackProviders overrides the default fallback order (the full
	// provider enumeration). Unknown ids are ignored.
	FallbackProviders []ProviderID

	// UseMultipleProviders is accepted but currently behaves identically to
	// single-provider mode. Reserved for response aggregation.
	UseMultipleProviders bool

	// Call is forwarded to the upstream provider call.
	Call *CallOptions
}

// Config represents the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig represents PostgreSQL configuration.
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// RedisConfig represents Redis configuration.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// BreakerConfig holds the default per-provider circuit breaker settings.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	ResetTimeout     time.Duration `mapstructure:"reset_timeout"`
	MonitoringPeriod time.Duration `mapstructure:"monitoring_period"`
}

// AuthConfig represents authentication configuration.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTExpiration time.Duration `mapstructure:"jwt_expiration"`
	// MasterKey is the hex-encoded 32-byte AES key used to decrypt provider
	// credentials stored in the registry.
	MasterKey string `mapstructure:"master_key"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
