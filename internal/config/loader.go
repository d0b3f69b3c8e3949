package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVariables(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment variables: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("contact.levels", []string{"h2-maths", "h1-maths", "a-maths"})
	v.SetDefault("contact.trap_levels", []string{"primary-maths"})
	v.SetDefault("contact.disposable_domains", []string{
		"10minutemail.com", "guerrillamail.com", "mailinator.com",
		"tempmail.org", "yopmail.com", "throwaway.email",
	})
	v.SetDefault("contact.rate_limit.enabled", false)
	v.SetDefault("contact.rate_limit.rps", 0.2)
	v.SetDefault("contact.rate_limit.burst", 3)
	v.SetDefault("contact.rate_limit.cleanup_interval", 5*time.Minute)
	v.SetDefault("contact.rate_limit.max_age", 10*time.Minute)

	v.SetDefault("recaptcha.project_id", "swift-arcadia-458910-c2")
	v.SetDefault("recaptcha.site_key", "6Ldq8NArAAAAADRscCMvQQuQN_uSSrPsHy1UEWy5")
	v.SetDefault("recaptcha.score_threshold", 0.5)
	v.SetDefault("recaptcha.action", "contact_form")
	v.SetDefault("recaptcha.timeout", 10*time.Second)

	v.SetDefault("mail.to", "ask@pentamaths.sg")
	v.SetDefault("mail.from", "noreply@pentamaths.sg")
	v.SetDefault("mail.timezone", "Asia/Singapore")
	v.SetDefault("mail.timeout", 15*time.Second)
	v.SetDefault("mail.smtp.port", 587)

	v.SetDefault("brand.name", "Pentamaths")
	v.SetDefault("brand.tagline", "Premium Mathematics Tuition")
	v.SetDefault("brand.tutor_name", "Mr Wu")
	v.SetDefault("brand.email", "ask@pentamaths.sg")
	v.SetDefault("brand.phone", "+65 8349 3435")
	v.SetDefault("brand.address", "17 Simon Road, #02-01, Singapore")
	v.SetDefault("brand.facebook", "facebook.com/pentamathsfb")

	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", 60*time.Second)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_ratio", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 5)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "contact-service")
	v.SetDefault("tracing.sampler.type", "always_on")
}

// bindEnvVariables keeps the variable names the site was deployed with.
func bindEnvVariables(v *viper.Viper) error {
	bindings := [][]string{
		{"server.port", "SERVER_PORT", "PORT"},
		{"server.read_timeout", "SERVER_READ_TIMEOUT"},
		{"server.write_timeout", "SERVER_WRITE_TIMEOUT"},
		{"server.trusted_proxies", "SERVER_TRUSTED_PROXIES"},

		{"logging.level", "LOGGING_LEVEL"},
		{"logging.format", "LOGGING_FORMAT"},

		{"contact.rate_limit.enabled", "CONTACT_RATE_LIMIT_ENABLED"},
		{"contact.rate_limit.rps", "CONTACT_RATE_LIMIT_RPS"},
		{"contact.rate_limit.burst", "CONTACT_RATE_LIMIT_BURST"},

		{"recaptcha.project_id", "GOOGLE_CLOUD_PROJECT_ID"},
		{"recaptcha.site_key", "RECAPTCHA_SITE_KEY", "NEXT_PUBLIC_RECAPTCHA_SITE_KEY"},
		{"recaptcha.credentials_base64", "GOOGLE_SERVICE_ACCOUNT_KEY"},
		{"recaptcha.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS"},
		{"recaptcha.score_threshold", "RECAPTCHA_SCORE_THRESHOLD"},
		{"recaptcha.action", "RECAPTCHA_ACTION"},
		{"recaptcha.timeout", "RECAPTCHA_TIMEOUT"},

		{"mail.to", "CONTACT_EMAIL_TO"},
		{"mail.from", "CONTACT_EMAIL_FROM"},
		{"mail.timezone", "MAIL_TIMEZONE"},
		{"mail.timeout", "MAIL_TIMEOUT"},
		{"mail.sendgrid.api_key", "SENDGRID_API_KEY"},
		{"mail.sendgrid.host", "SENDGRID_HOST"},
		{"mail.smtp.host", "SMTP_HOST"},
		{"mail.smtp.port", "SMTP_PORT"},
		{"mail.smtp.user", "SMTP_USER"},
		{"mail.smtp.password", "SMTP_PASS"},

		{"circuit_breaker.enabled", "CIRCUIT_BREAKER_ENABLED"},

		{"tracing.enabled", "TRACING_ENABLED"},
		{"tracing.service_name", "TRACING_SERVICE_NAME"},
		{"tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT"},
		{"tracing.otlp.insecure", "TRACING_OTLP_INSECURE"},
	}

	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return fmt.Errorf("bind %s: %w", b[0], err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Contact.Levels = normalizeList(cfg.Contact.Levels)
	cfg.Contact.TrapLevels = normalizeList(cfg.Contact.TrapLevels)
	cfg.Server.TrustedProxies = normalizeList(cfg.Server.TrustedProxies)

	domains := normalizeList(cfg.Contact.DisposableDomains)
	for i := range domains {
		domains[i] = strings.ToLower(domains[i])
	}
	cfg.Contact.DisposableDomains = domains

	cfg.Recaptcha.CredentialsBase64 = strings.TrimSpace(cfg.Recaptcha.CredentialsBase64)
	cfg.Mail.SendGrid.APIKey = strings.TrimSpace(cfg.Mail.SendGrid.APIKey)
}

// normalizeList splits comma-joined entries (as delivered by a single env
// variable) and drops blanks.
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
