package contact

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pentamaths/internal/config"
	"pentamaths/internal/logger"
	apperrors "pentamaths/pkg/errors"
	"pentamaths/pkg/metrics"
	"pentamaths/pkg/tracing"
)

const tracerName = "contact-service"

type Service struct {
	filter     *Filter
	assessor   RiskAssessor
	dispatcher Dispatcher
	action     string
	threshold  float64
	logger     logger.Logger
	now        func() time.Time
}

func NewService(filter *Filter, assessor RiskAssessor, dispatcher Dispatcher, cfg config.RecaptchaConfig, log logger.Logger) *Service {
	return &Service{
		filter:     filter,
		assessor:   assessor,
		dispatcher: dispatcher,
		action:     cfg.Action,
		threshold:  cfg.ScoreThreshold,
		logger:     log,
		now:        time.Now,
	}
}

// Submit runs one submission through filtering, risk scoring and delivery.
// It never returns an error: a fault anywhere becomes StatusFailed.
func (s *Service) Submit(ctx context.Context, sub Submission) (out Outcome) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "contact.submit")
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.RecoverPanic(r)
			s.logger.ErrorwCtx(ctx, "Panic while processing contact form", "error", err)
			out = Outcome{Status: StatusFailed, Reason: ReasonPanic, Err: err}
		}
		span.SetAttributes(
			attribute.String("contact.outcome", string(out.Status)),
			attribute.String("contact.reason", out.Reason),
		)
		tracing.EndSpan(span, out.Err)
		metrics.IncSubmission(string(out.Status), out.Reason)
		metrics.ObserveProcessingDuration(string(out.Status), time.Since(start))
	}()

	verdict := s.filter.Classify(sub)
	if verdict.Spam {
		s.logSpam(ctx, sub, verdict.Reason)
		return Outcome{Status: StatusAbsorbed, Reason: verdict.Reason}
	}
	if verdict.Invalid {
		s.logger.InfowCtx(ctx, "Contact form rejected",
			"reason", verdict.Reason,
			"email", sub.Email,
			"timestamp", s.timestamp(),
		)
		return Outcome{Status: StatusRejected, Reason: verdict.Reason, Problem: verdict.Problem}
	}

	var score *float64
	if sub.CaptchaToken != "" {
		score = s.assessor.Assess(ctx, sub.CaptchaToken, s.action)
		if score == nil {
			s.logger.InfowCtx(ctx, "reCAPTCHA verification failed",
				"email", sub.Email,
				"timestamp", s.timestamp(),
			)
			return Outcome{Status: StatusAbsorbed, Reason: ReasonAssessmentFailed}
		}
		if *score < s.threshold {
			s.logger.InfowCtx(ctx, "Low reCAPTCHA score - likely bot",
				"score", *score,
				"threshold", s.threshold,
				"email", sub.Email,
				"timestamp", s.timestamp(),
			)
			return Outcome{Status: StatusAbsorbed, Reason: ReasonLowScore, Score: score}
		}
		s.logger.InfowCtx(ctx, "reCAPTCHA verification passed",
			"score", *score,
			"email", sub.Email,
			"timestamp", s.timestamp(),
		)
	}

	s.logger.InfowCtx(ctx, "Processing legitimate contact form submission",
		"full_name", sub.FullName,
		"email", sub.Email,
		"subject_level", sub.SubjectLevel,
		"timestamp", s.timestamp(),
	)

	delivered := s.dispatcher.Send(ctx, sub)
	reason := ReasonDelivered
	if !delivered {
		reason = ReasonDeliveryFailed
		s.logger.ErrorwCtx(ctx, "Failed to send email, but will still return success to user")
	}

	return Outcome{Status: StatusAccepted, Reason: reason, Score: score, Delivered: delivered}
}

func (s *Service) logSpam(ctx context.Context, sub Submission, reason string) {
	fields := []interface{}{
		"reason", reason,
		"email", sub.Email,
		"timestamp", s.timestamp(),
	}
	if reason == ReasonInvalidLevel {
		fields = append(fields,
			"subject_level", sub.SubjectLevel,
			"trap_level", s.filter.IsTrapLevel(sub.SubjectLevel),
		)
	}
	s.logger.InfowCtx(ctx, "Spam detected", fields...)
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
