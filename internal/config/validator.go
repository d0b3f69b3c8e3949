package config

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	_ "time/tzdata" // distroless images ship without zoneinfo
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateLogging(cfg.Logging); err != nil {
		errors = append(errors, err)
	}

	if err := validateContact(cfg.Contact); err != nil {
		errors = append(errors, err)
	}

	if err := validateRecaptcha(cfg.Recaptcha); err != nil {
		errors = append(errors, err)
	}

	if err := validateMail(cfg.Mail); err != nil {
		errors = append(errors, err)
	}

	if err := validateCircuitBreaker(cfg.CircuitBreaker); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeout <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeout <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateLogging(cfg LoggingConfig) error {
	switch cfg.Format {
	case "json", "console":
		return nil
	default:
		return &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("format must be json or console, got %q", cfg.Format),
		}
	}
}

func validateContact(cfg ContactConfig) error {
	if len(cfg.Levels) == 0 {
		return &ValidationError{
			Field:   "contact.levels",
			Message: "at least one subject level is required",
		}
	}

	valid := make(map[string]bool, len(cfg.Levels))
	for _, level := range cfg.Levels {
		valid[level] = true
	}
	for _, trap := range cfg.TrapLevels {
		if valid[trap] {
			return &ValidationError{
				Field:   "contact.trap_levels",
				Message: fmt.Sprintf("level %q cannot be both valid and a trap", trap),
			}
		}
	}

	seen := make(map[string]bool, len(cfg.Rules))
	for i, rule := range cfg.Rules {
		if rule.Name == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("contact.rules[%d].name", i),
				Message: "rule name is required",
			}
		}
		if seen[rule.Name] {
			return &ValidationError{
				Field:   fmt.Sprintf("contact.rules[%d].name", i),
				Message: fmt.Sprintf("duplicate rule name: %s", rule.Name),
			}
		}
		seen[rule.Name] = true
		if strings.TrimSpace(rule.Expression) == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("contact.rules[%d].expression", i),
				Message: "rule expression is required",
			}
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RPS <= 0 {
			return &ValidationError{
				Field:   "contact.rate_limit.rps",
				Message: "rps must be positive when rate limiting is enabled",
			}
		}
		if cfg.RateLimit.Burst < 1 {
			return &ValidationError{
				Field:   "contact.rate_limit.burst",
				Message: "burst must be at least 1",
			}
		}
	}

	return nil
}

func validateRecaptcha(cfg RecaptchaConfig) error {
	if cfg.ScoreThreshold < 0 || cfg.ScoreThreshold > 1 {
		return &ValidationError{
			Field:   "recaptcha.score_threshold",
			Message: fmt.Sprintf("threshold must be between 0 and 1, got %g", cfg.ScoreThreshold),
		}
	}

	if cfg.Action == "" {
		return &ValidationError{
			Field:   "recaptcha.action",
			Message: "expected action is required",
		}
	}

	if cfg.Timeout <= 0 {
		return &ValidationError{
			Field:   "recaptcha.timeout",
			Message: "timeout must be positive",
		}
	}

	return nil
}

func validateMail(cfg MailConfig) error {
	if _, err := mail.ParseAddress(cfg.To); err != nil {
		return &ValidationError{
			Field:   "mail.to",
			Message: fmt.Sprintf("invalid address %q: %v", cfg.To, err),
		}
	}

	if _, err := mail.ParseAddress(cfg.From); err != nil {
		return &ValidationError{
			Field:   "mail.from",
			Message: fmt.Sprintf("invalid address %q: %v", cfg.From, err),
		}
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return &ValidationError{
			Field:   "mail.timezone",
			Message: fmt.Sprintf("unknown time zone %q", cfg.Timezone),
		}
	}

	if cfg.Timeout <= 0 {
		return &ValidationError{
			Field:   "mail.timeout",
			Message: "timeout must be positive",
		}
	}

	if cfg.SMTP.Host != "" && (cfg.SMTP.Port < 1 || cfg.SMTP.Port > 65535) {
		return &ValidationError{
			Field:   "mail.smtp.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.SMTP.Port),
		}
	}

	return nil
}

func validateCircuitBreaker(cfg CircuitBreakerConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		return &ValidationError{
			Field:   "circuit_breaker.failure_ratio",
			Message: "failure ratio must be in (0, 1]",
		}
	}

	if cfg.Timeout <= 0 {
		return &ValidationError{
			Field:   "circuit_breaker.timeout",
			Message: "timeout must be positive",
		}
	}

	return nil
}
