package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"pentamaths/internal/config"
	"pentamaths/internal/constants"
)

type SMTPProvider struct {
	host        string
	port        int
	user        string
	password    string
	timeout     time.Duration
	implicitTLS bool

	// tlsConfig is cloned per connection; tests point it at a local CA.
	tlsConfig *tls.Config
}

func NewSMTPProvider(cfg config.SMTPConfig, timeout time.Duration) *SMTPProvider {
	return &SMTPProvider{
		host:        cfg.Host,
		port:        cfg.Port,
		user:        cfg.User,
		password:    cfg.Password,
		timeout:     timeout,
		implicitTLS: cfg.Port == constants.SMTPImplicitTLSPort,
		tlsConfig:   &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
	}
}

func (p *SMTPProvider) Name() string {
	return constants.ProviderSMTP
}

func (p *SMTPProvider) addr() string {
	return net.JoinHostPort(p.host, strconv.Itoa(p.port))
}

// smtpConn is a client whose socket is closed as soon as its context is done,
// so no command outlives the caller's deadline.
type smtpConn struct {
	*smtp.Client
	ctx  context.Context
	stop func() bool
}

func (c *smtpConn) Close() error {
	c.stop()
	return c.Client.Close()
}

// err prefers the context error once the context has torn the socket down.
func (c *smtpConn) err(op string, err error) error {
	if ctxErr := c.ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// dial connects with implicit TLS on 465. Elsewhere it upgrades with STARTTLS
// when the relay advertises it and stays in plaintext when it does not.
func (p *SMTPProvider) dial(ctx context.Context) (*smtpConn, error) {
	if p.implicitTLS {
		d := tls.Dialer{NetDialer: p.netDialer(), Config: p.tlsConfig.Clone()}
		conn, err := d.DialContext(ctx, "tcp", p.addr())
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", p.addr(), err)
		}
		return p.bind(ctx, conn, smtp.NewClient(conn)), nil
	}

	conn, err := p.netDialer().DialContext(ctx, "tcp", p.addr())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", p.addr(), err)
	}
	c := p.bind(ctx, conn, smtp.NewClient(conn))
	if err := c.Hello("localhost"); err != nil {
		c.Close()
		return nil, c.err("hello", err)
	}
	if ok, _ := c.Extension("STARTTLS"); !ok {
		return c, nil
	}
	_ = c.Quit()
	c.Close()

	// go-smtp only upgrades a connection it has not yet greeted.
	conn, err = p.netDialer().DialContext(ctx, "tcp", p.addr())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", p.addr(), err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	client, err := smtp.NewClientStartTLS(conn, p.tlsConfig.Clone())
	if err != nil {
		stop()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("starttls: %w", ctxErr)
		}
		return nil, fmt.Errorf("starttls: %w", err)
	}
	p.applyTimeouts(client)
	return &smtpConn{Client: client, ctx: ctx, stop: stop}, nil
}

func (p *SMTPProvider) netDialer() *net.Dialer {
	return &net.Dialer{Timeout: p.timeout}
}

func (p *SMTPProvider) bind(ctx context.Context, conn net.Conn, client *smtp.Client) *smtpConn {
	p.applyTimeouts(client)
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	return &smtpConn{Client: client, ctx: ctx, stop: stop}
}

func (p *SMTPProvider) applyTimeouts(c *smtp.Client) {
	if p.timeout > 0 {
		c.CommandTimeout = p.timeout
		c.SubmissionTimeout = p.timeout
	}
}

func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := composeMIME(msg, time.Now())
	if err != nil {
		return err
	}

	c, err := p.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Auth(sasl.NewPlainClient("", p.user, p.password)); err != nil {
		return c.err("smtp auth", err)
	}

	if err := c.SendMail(msg.From, []string{msg.To}, bytes.NewReader(body)); err != nil {
		return c.err("smtp send", err)
	}

	if err := c.Quit(); err != nil {
		return c.err("quit", err)
	}
	return nil
}

// Ping proves the relay answers and accepts a NOOP. It does not authenticate.
func (p *SMTPProvider) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := p.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Noop(); err != nil {
		return c.err("noop", err)
	}
	if err := c.Quit(); err != nil {
		return c.err("quit", err)
	}
	return nil
}

// composeMIME builds an RFC 5322 message: multipart/alternative when there is
// a text body, a single HTML part otherwise.
func composeMIME(msg Message, date time.Time) ([]byte, error) {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return nil, fmt.Errorf("parse from address: %w", err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("parse to address: %w", err)
	}

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	var buf bytes.Buffer

	if msg.TextBody == "" {
		h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		w, err := mail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return nil, fmt.Errorf("create message writer: %w", err)
		}
		if _, err := w.Write([]byte(msg.HTMLBody)); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}
	iw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("create inline writer: %w", err)
	}

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", msg.TextBody},
		{"text/html", msg.HTMLBody},
	}
	for _, part := range parts {
		var ph mail.InlineHeader
		ph.SetContentType(part.contentType, map[string]string{"charset": "utf-8"})
		ph.Set("Content-Transfer-Encoding", "quoted-printable")
		pw, err := iw.CreatePart(ph)
		if err != nil {
			return nil, fmt.Errorf("create %s part: %w", part.contentType, err)
		}
		if _, err := pw.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := pw.Close(); err != nil {
			return nil, err
		}
	}

	if err := iw.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
