//go:build integration

package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pentamaths/internal/config"
	"pentamaths/internal/logger"
)

type mailpitMessages struct {
	Total    int `json:"total"`
	Messages []struct {
		Subject string `json:"Subject"`
		To      []struct {
			Address string `json:"Address"`
		} `json:"To"`
	} `json:"messages"`
}

func startMailpit(t *testing.T) (smtpPort int, apiURL string) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "axllent/mailpit:v1.21",
			ExposedPorts: []string{"1025/tcp", "8025/tcp"},
			Env: map[string]string{
				"MP_SMTP_AUTH_ACCEPT_ANY":     "1",
				"MP_SMTP_AUTH_ALLOW_INSECURE": "1",
			},
			WaitingFor: wait.ForHTTP("/livez").WithPort("8025/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start mailpit container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	smtpMapped, err := container.MappedPort(ctx, "1025/tcp")
	require.NoError(t, err)
	apiMapped, err := container.MappedPort(ctx, "8025/tcp")
	require.NoError(t, err)

	return smtpMapped.Int(), fmt.Sprintf("http://%s:%s", host, apiMapped.Port())
}

func TestDispatcher_SMTPIntegration(t *testing.T) {
	smtpPort, apiURL := startMailpit(t)

	cfg := testMailConfig()
	cfg.SMTP = config.SMTPConfig{Host: "localhost", Port: smtpPort, User: "mailer", Password: "secret"}

	d, err := NewDispatcher(cfg, testBrand(), logger.NopLogger())
	require.NoError(t, err)
	require.True(t, d.Send(context.Background(), testSubmission()))

	resp, err := http.Get(apiURL + "/api/v1/messages")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got mailpitMessages
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, 2, got.Total)

	subjects := map[string]string{}
	for _, m := range got.Messages {
		require.Len(t, m.To, 1)
		subjects[m.Subject] = m.To[0].Address
	}
	assert.Equal(t, "ask@pentamaths.sg", subjects["New Contact: Jane Tan - h2-maths"])
	assert.Equal(t, "jane@example.com", subjects["Thank you for contacting Pentamaths!"])
}
