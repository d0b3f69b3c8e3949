package constants

import "time"

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	ServiceName = "contact-service"
)

const (
	ContactPath        = "/api/contact"
	ContactOptionsPath = "/api/contact/options"
)

const (
	SendGridHost = "https://api.sendgrid.com"
	SendGridPath = "/v3/mail/send"
)

const (
	SMTPImplicitTLSPort = 465
)

const (
	ProviderSendGrid = "sendgrid"
	ProviderSMTP     = "smtp"
)

const (
	MessageNotification = "notification"
	MessageAutoReply    = "auto_reply"
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)
