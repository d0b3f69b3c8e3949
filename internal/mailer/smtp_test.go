package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pentamaths/internal/config"
	"pentamaths/internal/constants"
)

type receivedMail struct {
	from string
	to   []string
	data []byte
	tls  bool
}

type testBackend struct {
	mu       sync.Mutex
	user     string
	password string
	received []receivedMail
}

func (b *testBackend) messages() []receivedMail {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]receivedMail(nil), b.received...)
}

type testSession struct {
	backend *testBackend
	tls     bool
	authed  bool
	current receivedMail
}

func (s *testSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *testSession) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if username != s.backend.user || password != s.backend.password {
			return errors.New("invalid credentials")
		}
		s.authed = true
		return nil
	}), nil
}

func (s *testSession) Mail(from string, _ *smtp.MailOptions) error {
	if !s.authed {
		return smtp.ErrAuthRequired
	}
	s.current.from = from
	return nil
}

func (s *testSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.current.to = append(s.current.to, to)
	return nil
}

func (s *testSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.current.data = data
	s.current.tls = s.tls

	s.backend.mu.Lock()
	s.backend.received = append(s.backend.received, s.current)
	s.backend.mu.Unlock()
	return nil
}

func (s *testSession) Reset() {
	s.current = receivedMail{}
}

func (s *testSession) Logout() error {
	return nil
}

func startSMTPServer(t *testing.T) (*testBackend, int) {
	t.Helper()
	return serveSMTP(t, nil, false)
}

// serveSMTP runs an in-process relay. With tlsConfig set it offers STARTTLS,
// or speaks TLS from the first byte when implicit is true.
func serveSMTP(t *testing.T, tlsConfig *tls.Config, implicit bool) (*testBackend, int) {
	t.Helper()

	backend := &testBackend{user: "mailer", password: "secret"}
	srv := smtp.NewServer(smtp.BackendFunc(func(c *smtp.Conn) (smtp.Session, error) {
		_, isTLS := c.TLSConnectionState()
		return &testSession{backend: backend, tls: isTLS}, nil
	}))
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.TLSConfig = tlsConfig

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	if implicit {
		ln = tls.NewListener(ln, tlsConfig)
	}

	go func() {
		_ = srv.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = srv.Close()
	})

	return backend, port
}

// localCA returns a server config using httptest's loopback certificate and a
// pool that trusts it.
func localCA(t *testing.T) (*tls.Config, *x509.CertPool) {
	t.Helper()

	ts := httptest.NewUnstartedServer(http.NotFoundHandler())
	ts.StartTLS()
	t.Cleanup(ts.Close)

	pool := x509.NewCertPool()
	pool.AddCert(ts.Certificate())
	return &tls.Config{Certificates: ts.TLS.Certificates}, pool
}

func newTestSMTPProvider(port int, password string) *SMTPProvider {
	return NewSMTPProvider(config.SMTPConfig{
		Host:     "127.0.0.1",
		Port:     port,
		User:     "mailer",
		Password: password,
	}, 5*time.Second)
}

func TestSMTPProvider_SendMultipart(t *testing.T) {
	backend, port := startSMTPServer(t)
	p := newTestSMTPProvider(port, "secret")

	err := p.Send(context.Background(), Message{
		To:       "ask@pentamaths.sg",
		From:     "noreply@pentamaths.sg",
		Subject:  "New Contact: Jane Tan - h2-maths",
		TextBody: "Full Name: Jane Tan",
		HTMLBody: "<p>Jane Tan</p>",
	})
	require.NoError(t, err)

	received := backend.messages()
	require.Len(t, received, 1)
	assert.Equal(t, "noreply@pentamaths.sg", received[0].from)
	assert.Equal(t, []string{"ask@pentamaths.sg"}, received[0].to)

	mr, err := mail.CreateReader(bytes.NewReader(received[0].data))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "New Contact: Jane Tan - h2-maths", subject)

	from, err := mr.Header.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "noreply@pentamaths.sg", from[0].Address)

	messageID, err := mr.Header.MessageID()
	require.NoError(t, err)
	assert.NotEmpty(t, messageID)

	var types, bodies []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		h, ok := part.Header.(*mail.InlineHeader)
		require.True(t, ok)
		ct, _, err := h.ContentType()
		require.NoError(t, err)
		body, err := io.ReadAll(part.Body)
		require.NoError(t, err)

		types = append(types, ct)
		bodies = append(bodies, strings.TrimRight(string(body), "\r\n"))
	}

	assert.Equal(t, []string{"text/plain", "text/html"}, types)
	assert.Equal(t, []string{"Full Name: Jane Tan", "<p>Jane Tan</p>"}, bodies)
}

func TestSMTPProvider_SendHTMLOnly(t *testing.T) {
	backend, port := startSMTPServer(t)
	p := newTestSMTPProvider(port, "secret")

	err := p.Send(context.Background(), Message{
		To:       "jane@example.com",
		From:     "noreply@pentamaths.sg",
		Subject:  "Thank you for contacting Pentamaths!",
		HTMLBody: "<h2>🎓 Thank You, Jane Tan!</h2>",
	})
	require.NoError(t, err)

	received := backend.messages()
	require.Len(t, received, 1)

	entity, err := message.Read(bytes.NewReader(received[0].data))
	require.NoError(t, err)

	ct, params, err := entity.Header.ContentType()
	require.NoError(t, err)
	assert.Equal(t, "text/html", ct)
	assert.Equal(t, "utf-8", params["charset"])

	body, err := io.ReadAll(entity.Body)
	require.NoError(t, err)
	assert.Equal(t, "<h2>🎓 Thank You, Jane Tan!</h2>", strings.TrimRight(string(body), "\r\n"))
}

func TestSMTPProvider_AuthFailure(t *testing.T) {
	backend, port := startSMTPServer(t)
	p := newTestSMTPProvider(port, "wrong")

	err := p.Send(context.Background(), Message{
		To:       "ask@pentamaths.sg",
		From:     "noreply@pentamaths.sg",
		HTMLBody: "<p>x</p>",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp auth")
	assert.Empty(t, backend.messages())
}

func TestSMTPProvider_InvalidAddress(t *testing.T) {
	_, port := startSMTPServer(t)
	p := newTestSMTPProvider(port, "secret")

	err := p.Send(context.Background(), Message{To: "not an address", From: "noreply@pentamaths.sg", HTMLBody: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse to address")
}

func TestSMTPProvider_CancelledContext(t *testing.T) {
	p := newTestSMTPProvider(1, "secret")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Send(ctx, Message{}), context.Canceled)
	assert.ErrorIs(t, p.Ping(ctx), context.Canceled)
}

func TestSMTPProvider_Ping(t *testing.T) {
	_, port := startSMTPServer(t)
	p := newTestSMTPProvider(port, "secret")

	assert.NoError(t, p.Ping(context.Background()))
	assert.Equal(t, constants.ProviderSMTP, p.Name())
}

func TestSMTPProvider_PingUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	p := newTestSMTPProvider(port, "secret")
	err = p.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial")
}

func TestSMTPProvider_StartTLS(t *testing.T) {
	serverTLS, pool := localCA(t)
	backend, port := serveSMTP(t, serverTLS, false)

	p := newTestSMTPProvider(port, "secret")
	p.tlsConfig.RootCAs = pool

	err := p.Send(context.Background(), Message{
		To:       "ask@pentamaths.sg",
		From:     "noreply@pentamaths.sg",
		Subject:  "New Contact: Jane Tan - h2-maths",
		HTMLBody: "<p>Jane Tan</p>",
	})
	require.NoError(t, err)

	received := backend.messages()
	require.Len(t, received, 1)
	assert.True(t, received[0].tls, "message should arrive over the upgraded connection")
}

func TestSMTPProvider_StartTLSUntrustedCertificate(t *testing.T) {
	serverTLS, _ := localCA(t)
	backend, port := serveSMTP(t, serverTLS, false)

	p := newTestSMTPProvider(port, "secret")

	err := p.Send(context.Background(), Message{
		To:       "ask@pentamaths.sg",
		From:     "noreply@pentamaths.sg",
		HTMLBody: "<p>x</p>",
	})
	require.Error(t, err)
	assert.Empty(t, backend.messages())
}

func TestSMTPProvider_ImplicitTLS(t *testing.T) {
	serverTLS, pool := localCA(t)
	backend, port := serveSMTP(t, serverTLS, true)

	p := newTestSMTPProvider(port, "secret")
	p.implicitTLS = true
	p.tlsConfig.RootCAs = pool

	require.NoError(t, p.Ping(context.Background()))
	err := p.Send(context.Background(), Message{
		To:       "ask@pentamaths.sg",
		From:     "noreply@pentamaths.sg",
		HTMLBody: "<p>x</p>",
	})
	require.NoError(t, err)

	received := backend.messages()
	require.Len(t, received, 1)
	assert.True(t, received[0].tls)
}

func TestSMTPProvider_ImplicitTLSPort(t *testing.T) {
	p := NewSMTPProvider(config.SMTPConfig{Host: "smtp.example.com", Port: constants.SMTPImplicitTLSPort}, time.Second)
	assert.True(t, p.implicitTLS)
	assert.Equal(t, "smtp.example.com", p.tlsConfig.ServerName)

	p = NewSMTPProvider(config.SMTPConfig{Host: "smtp.example.com", Port: 587}, time.Second)
	assert.False(t, p.implicitTLS)
}

func TestSMTPProvider_SilentRelayHonoursDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	accepted := make(chan net.Conn, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				close(accepted)
				return
			}
			accepted <- conn
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		for conn := range accepted {
			_ = conn.Close()
		}
	})

	p := newTestSMTPProvider(ln.Addr().(*net.TCPAddr).Port, "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = p.Send(ctx, Message{
		To:       "ask@pentamaths.sg",
		From:     "noreply@pentamaths.sg",
		HTMLBody: "<p>x</p>",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
