package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Contact        ContactConfig        `mapstructure:"contact"`
	Recaptcha      RecaptchaConfig      `mapstructure:"recaptcha"`
	Mail           MailConfig           `mapstructure:"mail"`
	Brand          BrandConfig          `mapstructure:"brand"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// TrustedProxies feeds gin's ClientIP resolution for rate limiting.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ContactConfig declares the form vocabulary. Levels are the values the page
// legitimately offers; TrapLevels are decoy options rendered next to them.
type ContactConfig struct {
	Levels            []string        `mapstructure:"levels"`
	TrapLevels        []string        `mapstructure:"trap_levels"`
	DisposableDomains []string        `mapstructure:"disposable_domains"`
	Rules             []RuleConfig    `mapstructure:"rules"`
	RateLimit         RateLimitConfig `mapstructure:"rate_limit"`
}

type RuleConfig struct {
	Name       string `mapstructure:"name"`
	Expression string `mapstructure:"expression"` // CEL expression that must evaluate to bool
}

type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RPS             float64       `mapstructure:"rps"`
	Burst           int           `mapstructure:"burst"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxAge          time.Duration `mapstructure:"max_age"`
}

type RecaptchaConfig struct {
	ProjectID         string        `mapstructure:"project_id"`
	SiteKey           string        `mapstructure:"site_key"`
	CredentialsBase64 string        `mapstructure:"credentials_base64"`
	CredentialsFile   string        `mapstructure:"credentials_file"`
	ScoreThreshold    float64       `mapstructure:"score_threshold"`
	Action            string        `mapstructure:"action"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type MailConfig struct {
	To       string         `mapstructure:"to"`
	From     string         `mapstructure:"from"`
	Timezone string         `mapstructure:"timezone"`
	Timeout  time.Duration  `mapstructure:"timeout"`
	SendGrid SendGridConfig `mapstructure:"sendgrid"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
}

type SendGridConfig struct {
	APIKey string `mapstructure:"api_key"`
	Host   string `mapstructure:"host"` // empty means https://api.sendgrid.com
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

type BrandConfig struct {
	Name      string `mapstructure:"name"`
	Tagline   string `mapstructure:"tagline"`
	TutorName string `mapstructure:"tutor_name"`
	Email     string `mapstructure:"email"`
	Phone     string `mapstructure:"phone"`
	Address   string `mapstructure:"address"`
	Facebook  string `mapstructure:"facebook"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

// Load reads configFile when non-empty; every key has a default so an empty
// path yields a runnable configuration driven by the environment alone.
func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
