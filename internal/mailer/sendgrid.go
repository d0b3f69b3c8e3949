package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"pentamaths/internal/config"
	"pentamaths/internal/constants"
)

type SendGridProvider struct {
	apiKey string
	host   string
}

func NewSendGridProvider(cfg config.SendGridConfig) *SendGridProvider {
	host := cfg.Host
	if host == "" {
		host = constants.SendGridHost
	}
	return &SendGridProvider{apiKey: cfg.APIKey, host: host}
}

func (p *SendGridProvider) Name() string {
	return constants.ProviderSendGrid
}

func (p *SendGridProvider) Send(ctx context.Context, msg Message) error {
	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail("", msg.From))
	m.Subject = msg.Subject

	personalization := sgmail.NewPersonalization()
	personalization.AddTos(sgmail.NewEmail("", msg.To))
	m.AddPersonalizations(personalization)

	// text/plain has to precede text/html in the v3 payload.
	if msg.TextBody != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	}
	m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))

	req := sendgrid.GetRequest(p.apiKey, constants.SendGridPath, p.host)
	req.Method = "POST"
	req.Body = sgmail.GetRequestBody(m)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.StatusCode >= constants.HTTPStatusOKMin && resp.StatusCode < constants.HTTPStatusOKMax {
		return nil
	}

	return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
}
