package risk

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pentamaths/internal/config"
	"pentamaths/internal/logger"
	"pentamaths/pkg/circuitbreaker"
	apperrors "pentamaths/pkg/errors"
	"pentamaths/pkg/metrics"
	"pentamaths/pkg/tracing"
)

const tracerName = "risk-assessor"

const (
	resultScored         = "scored"
	resultInvalidToken   = "invalid_token"
	resultActionMismatch = "action_mismatch"
	resultError          = "error"
	resultPanic          = "panic"
)

// Assessment is the part of a reCAPTCHA Enterprise assessment the pipeline
// looks at.
type Assessment struct {
	Valid         bool
	InvalidReason string
	Action        string
	Score         float64
	Reasons       []string
}

type AssessmentRequest struct {
	ProjectID string
	SiteKey   string
	Token     string
}

// Client is a connection to the assessment API. It is opened for one
// assessment and closed straight after.
type Client interface {
	CreateAssessment(ctx context.Context, req AssessmentRequest) (*Assessment, error)
	Close() error
}

type ClientFactory func(ctx context.Context) (Client, error)

type Assessor struct {
	projectID string
	siteKey   string
	timeout   time.Duration
	newClient ClientFactory
	breaker   *circuitbreaker.Wrapper
	logger    logger.Logger
}

type Option func(*Assessor)

func WithClientFactory(factory ClientFactory) Option {
	return func(a *Assessor) {
		a.newClient = factory
	}
}

// WithCircuitBreaker short-circuits assessments while the API keeps failing.
// An open breaker reads as "no score".
func WithCircuitBreaker(breaker *circuitbreaker.Wrapper) Option {
	return func(a *Assessor) {
		a.breaker = breaker
	}
}

func NewAssessor(cfg config.RecaptchaConfig, log logger.Logger, opts ...Option) *Assessor {
	a := &Assessor{
		projectID: cfg.ProjectID,
		siteKey:   cfg.SiteKey,
		timeout:   cfg.Timeout,
		logger:    log,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.newClient == nil {
		a.newClient = NewEnterpriseClientFactory(cfg)
	}
	return a
}

// Assess returns the risk score for token, or nil when the token is invalid,
// was minted for another action, or the assessment could not be made.
func (a *Assessor) Assess(ctx context.Context, token, expectedAction string) (score *float64) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "risk.assess",
		attribute.String("recaptcha.expected_action", expectedAction),
	)
	start := time.Now()
	result := resultError

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.RecoverPanic(r)
			a.logger.ErrorwCtx(ctx, "Error creating reCAPTCHA assessment", "error", err)
			score = nil
			result = resultPanic
		}
		span.SetAttributes(attribute.String("recaptcha.result", result))
		tracing.EndSpan(span, nil)
		metrics.IncRiskAssessment(result)
		metrics.ObserveRiskAssessmentDuration(time.Since(start))
	}()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	assessment, err := a.execute(ctx, token)
	if err != nil {
		a.logger.ErrorwCtx(ctx, "Error creating reCAPTCHA assessment", "error", err)
		return nil
	}

	if !assessment.Valid {
		result = resultInvalidToken
		a.logger.InfowCtx(ctx, fmt.Sprintf("The CreateAssessment call failed because the token was: %s", assessment.InvalidReason))
		return nil
	}

	if assessment.Action != expectedAction {
		result = resultActionMismatch
		a.logger.InfowCtx(ctx, "The action attribute in your reCAPTCHA tag does not match the action you are expecting to score",
			"action", assessment.Action,
			"expected_action", expectedAction,
		)
		return nil
	}

	result = resultScored
	a.logger.InfowCtx(ctx, fmt.Sprintf("The reCAPTCHA score is: %v", assessment.Score),
		"reasons", assessment.Reasons,
	)
	metrics.ObserveRiskScore(assessment.Score)

	s := assessment.Score
	return &s
}

func (a *Assessor) execute(ctx context.Context, token string) (*Assessment, error) {
	if a.breaker == nil {
		return a.createAssessment(ctx, token)
	}

	res, err := a.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
		return a.createAssessment(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Assessment), nil
}

func (a *Assessor) createAssessment(ctx context.Context, token string) (*Assessment, error) {
	client, err := a.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create reCAPTCHA client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			a.logger.WarnwCtx(ctx, "Failed to close reCAPTCHA client", "error", err)
		}
	}()

	assessment, err := client.CreateAssessment(ctx, AssessmentRequest{
		ProjectID: a.projectID,
		SiteKey:   a.siteKey,
		Token:     token,
	})
	if err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	if assessment == nil {
		return nil, fmt.Errorf("create assessment: empty response")
	}
	return assessment, nil
}
