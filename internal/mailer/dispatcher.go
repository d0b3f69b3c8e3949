package mailer

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pentamaths/internal/config"
	"pentamaths/internal/contact"
	"pentamaths/internal/logger"
	"pentamaths/pkg/circuitbreaker"
	apperrors "pentamaths/pkg/errors"
	"pentamaths/pkg/metrics"
	"pentamaths/pkg/tracing"
)

const tracerName = "mailer"

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Dispatcher sends the operator notification and the sender's auto-reply
// through the first configured provider: SendGrid, then SMTP.
type Dispatcher struct {
	to       string
	from     string
	timeout  time.Duration
	provider Provider
	renderer *Renderer
	breaker  *config.CircuitBreakerConfig
	now      func() time.Time
	logger   logger.Logger
}

type Option func(*Dispatcher)

// WithProvider replaces provider selection from configuration.
func WithProvider(p Provider) Option {
	return func(d *Dispatcher) {
		d.provider = p
	}
}

func WithCircuitBreaker(cfg config.CircuitBreakerConfig) Option {
	return func(d *Dispatcher) {
		d.breaker = &cfg
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func NewDispatcher(cfg config.MailConfig, brand config.BrandConfig, log logger.Logger, opts ...Option) (*Dispatcher, error) {
	renderer, err := NewRenderer(brand, cfg.Timezone)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		to:       cfg.To,
		from:     cfg.From,
		timeout:  cfg.Timeout,
		renderer: renderer,
		now:      time.Now,
		logger:   log,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.provider == nil {
		d.provider = selectProvider(cfg)
	}
	if d.provider != nil && d.breaker != nil {
		d.provider = NewCircuitBreakerProvider(d.provider,
			circuitbreaker.FromConfig("mail-"+d.provider.Name(), *d.breaker))
	}

	return d, nil
}

func selectProvider(cfg config.MailConfig) Provider {
	if cfg.SendGrid.APIKey != "" {
		return NewSendGridProvider(cfg.SendGrid)
	}
	if cfg.SMTP.Configured() {
		return NewSMTPProvider(cfg.SMTP, cfg.Timeout)
	}
	return nil
}

// Provider returns the provider in use, decorated, or nil when none is
// configured.
func (d *Dispatcher) Provider() Provider {
	return d.provider
}

// Send delivers both emails for sub. It reports false when no provider is
// configured or either delivery fails; the error is logged, never returned.
func (d *Dispatcher) Send(ctx context.Context, sub contact.Submission) (sent bool) {
	if d.provider == nil {
		d.logger.ErrorwCtx(ctx, "No email service configured")
		return false
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, "mailer.send",
		attribute.String("mail.provider", d.provider.Name()),
	)
	var sendErr error

	defer func() {
		if r := recover(); r != nil {
			sendErr = apperrors.RecoverPanic(r)
			d.logger.ErrorwCtx(ctx, "Error sending email", "error", sendErr)
			sent = false
		}
		tracing.EndSpan(span, sendErr)
	}()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if sendErr = d.deliver(ctx, sub); sendErr != nil {
		d.logger.ErrorwCtx(ctx, "Error sending email",
			"error", sendErr,
			"provider", d.provider.Name(),
		)
		return false
	}
	return true
}

func (d *Dispatcher) deliver(ctx context.Context, sub contact.Submission) error {
	notification, err := d.renderer.Notification(sub, d.to, d.from, d.now())
	if err != nil {
		return err
	}
	if err := d.sendOne(ctx, notification); err != nil {
		return err
	}
	d.logger.InfowCtx(ctx, fmt.Sprintf("Contact email sent via %s", d.provider.Name()))

	autoReply, err := d.renderer.AutoReply(sub, d.from)
	if err != nil {
		return err
	}
	if err := d.sendOne(ctx, autoReply); err != nil {
		return err
	}
	d.logger.InfowCtx(ctx, fmt.Sprintf("Auto-reply sent via %s", d.provider.Name()))

	return nil
}

func (d *Dispatcher) sendOne(ctx context.Context, msg Message) error {
	start := time.Now()
	err := d.provider.Send(ctx, msg)
	metrics.ObserveEmailDeliveryDuration(d.provider.Name(), time.Since(start))

	status := statusSuccess
	if err != nil {
		status = statusFailure
	}
	metrics.IncEmailDelivery(d.provider.Name(), msg.Kind, status)

	if err != nil {
		return fmt.Errorf("send %s: %w", msg.Kind, err)
	}
	return nil
}
