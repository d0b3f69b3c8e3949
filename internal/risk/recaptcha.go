package risk

import (
	"context"
	"fmt"

	recaptcha "cloud.google.com/go/recaptchaenterprise/v2/apiv1"
	"cloud.google.com/go/recaptchaenterprise/v2/apiv1/recaptchaenterprisepb"

	"pentamaths/internal/config"
)

type enterpriseClient struct {
	client *recaptcha.Client
}

// NewEnterpriseClientFactory opens a reCAPTCHA Enterprise client with the
// configured credentials.
func NewEnterpriseClientFactory(cfg config.RecaptchaConfig) ClientFactory {
	return func(ctx context.Context) (Client, error) {
		opts, err := ClientOptions(cfg)
		if err != nil {
			return nil, err
		}

		client, err := recaptcha.NewClient(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return &enterpriseClient{client: client}, nil
	}
}

func (c *enterpriseClient) CreateAssessment(ctx context.Context, req AssessmentRequest) (*Assessment, error) {
	resp, err := c.client.CreateAssessment(ctx, &recaptchaenterprisepb.CreateAssessmentRequest{
		Parent: fmt.Sprintf("projects/%s", req.ProjectID),
		Assessment: &recaptchaenterprisepb.Assessment{
			Event: &recaptchaenterprisepb.Event{
				Token:   req.Token,
				SiteKey: req.SiteKey,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return fromProto(resp), nil
}

func (c *enterpriseClient) Close() error {
	return c.client.Close()
}

func fromProto(resp *recaptchaenterprisepb.Assessment) *Assessment {
	props := resp.GetTokenProperties()
	analysis := resp.GetRiskAnalysis()

	reasons := make([]string, 0, len(analysis.GetReasons()))
	for _, reason := range analysis.GetReasons() {
		reasons = append(reasons, reason.String())
	}

	return &Assessment{
		Valid:         props.GetValid(),
		InvalidReason: props.GetInvalidReason().String(),
		Action:        props.GetAction(),
		Score:         float64(analysis.GetScore()),
		Reasons:       reasons,
	}
}
