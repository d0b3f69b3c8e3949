package risk

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pentamaths/internal/config"
	"pentamaths/internal/logger"
	"pentamaths/pkg/circuitbreaker"
)

type fakeClient struct {
	assessment *Assessment
	err        error
	panics     bool
	block      bool

	req    AssessmentRequest
	closed int
}

func (c *fakeClient) CreateAssessment(ctx context.Context, req AssessmentRequest) (*Assessment, error) {
	c.req = req
	if c.panics {
		panic("grpc exploded")
	}
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return c.assessment, c.err
}

func (c *fakeClient) Close() error {
	c.closed++
	return nil
}

func testRecaptchaConfig() config.RecaptchaConfig {
	return config.RecaptchaConfig{
		ProjectID: "test-project",
		SiteKey:   "site-key",
		Action:    "contact_form",
		Timeout:   time.Second,
	}
}

func newTestAssessor(client *fakeClient, opts ...Option) *Assessor {
	factory := func(context.Context) (Client, error) { return client, nil }
	opts = append([]Option{WithClientFactory(factory)}, opts...)
	return NewAssessor(testRecaptchaConfig(), logger.NopLogger(), opts...)
}

func TestAssess_Scored(t *testing.T) {
	client := &fakeClient{assessment: &Assessment{
		Valid:   true,
		Action:  "contact_form",
		Score:   0.9,
		Reasons: []string{"LOW_CONFIDENCE_SCORE"},
	}}

	score := newTestAssessor(client).Assess(context.Background(), "tok", "contact_form")

	require.NotNil(t, score)
	assert.Equal(t, 0.9, *score)
	assert.Equal(t, AssessmentRequest{ProjectID: "test-project", SiteKey: "site-key", Token: "tok"}, client.req)
	assert.Equal(t, 1, client.closed)
}

func TestAssess_ZeroScoreIsAScore(t *testing.T) {
	client := &fakeClient{assessment: &Assessment{Valid: true, Action: "contact_form"}}

	score := newTestAssessor(client).Assess(context.Background(), "tok", "contact_form")

	require.NotNil(t, score)
	assert.Zero(t, *score)
}

func TestAssess_NoScore(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{
			name:   "invalid token",
			client: &fakeClient{assessment: &Assessment{Valid: false, InvalidReason: "EXPIRED", Score: 0.9}},
		},
		{
			name:   "action mismatch",
			client: &fakeClient{assessment: &Assessment{Valid: true, Action: "login", Score: 0.9}},
		},
		{
			name:   "rpc error",
			client: &fakeClient{err: errors.New("permission denied")},
		},
		{
			name:   "empty response",
			client: &fakeClient{},
		},
		{
			name:   "panic in client",
			client: &fakeClient{panics: true},
		},
		{
			name:   "timeout",
			client: &fakeClient{block: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testRecaptchaConfig()
			cfg.Timeout = 20 * time.Millisecond
			factory := func(context.Context) (Client, error) { return tt.client, nil }
			a := NewAssessor(cfg, logger.NopLogger(), WithClientFactory(factory))

			score := a.Assess(context.Background(), "tok", "contact_form")

			assert.Nil(t, score)
			assert.Equal(t, 1, tt.client.closed, "client must be released on every path")
		})
	}
}

func TestAssess_FactoryError(t *testing.T) {
	factory := func(context.Context) (Client, error) { return nil, errors.New("no credentials") }
	a := NewAssessor(testRecaptchaConfig(), logger.NopLogger(), WithClientFactory(factory))

	assert.Nil(t, a.Assess(context.Background(), "tok", "contact_form"))
}

func TestAssess_BadInlineCredentials(t *testing.T) {
	cfg := testRecaptchaConfig()
	cfg.CredentialsBase64 = "%%%not-base64%%%"
	a := NewAssessor(cfg, logger.NopLogger())

	assert.Nil(t, a.Assess(context.Background(), "tok", "contact_form"))
}

func TestAssess_CircuitBreakerOpen(t *testing.T) {
	client := &fakeClient{err: errors.New("unavailable")}
	breaker := circuitbreaker.NewWrapper(circuitbreaker.FromConfig("recaptcha-test", config.CircuitBreakerConfig{
		FailureRatio: 1,
		MinRequests:  1,
		Timeout:      time.Minute,
	}))
	a := newTestAssessor(client, WithCircuitBreaker(breaker))

	assert.Nil(t, a.Assess(context.Background(), "tok", "contact_form"))
	require.True(t, breaker.IsOpen())

	client.err = nil
	client.assessment = &Assessment{Valid: true, Action: "contact_form", Score: 0.9}
	assert.Nil(t, a.Assess(context.Background(), "tok", "contact_form"))
	assert.Equal(t, 1, client.closed, "open breaker must not open a client")
}

func TestDecodeCredentials(t *testing.T) {
	raw := `{"type":"service_account","project_id":"p"}`
	got, err := DecodeCredentials(base64.StdEncoding.EncodeToString([]byte(raw)))
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(got))

	_, err = DecodeCredentials("not base64!")
	assert.Error(t, err)

	_, err = DecodeCredentials(base64.StdEncoding.EncodeToString([]byte("plain text")))
	assert.Error(t, err)
}

func TestClientOptions(t *testing.T) {
	opts, err := ClientOptions(config.RecaptchaConfig{})
	require.NoError(t, err)
	assert.Empty(t, opts)

	opts, err = ClientOptions(config.RecaptchaConfig{CredentialsFile: "/tmp/key.json"})
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	opts, err = ClientOptions(config.RecaptchaConfig{
		CredentialsBase64: base64.StdEncoding.EncodeToString([]byte(`{}`)),
		CredentialsFile:   "/tmp/key.json",
	})
	require.NoError(t, err)
	assert.Len(t, opts, 1)
}
