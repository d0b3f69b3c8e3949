package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"pentamaths/internal/config"
	"pentamaths/internal/constants"
	"pentamaths/internal/contact"
)

//go:embed templates/*
var templateFS embed.FS

// receivedLayout matches how en-SG renders a local date and time.
const receivedLayout = "02/01/2006, 3:04:05 pm"

type templateData struct {
	Brand           config.BrandConfig
	FullName        string
	Email           string
	LevelLabel      string
	LevelShortLabel string
	Message         string
	MessageHTML     htmltemplate.HTML
	ReceivedAt      string
}

type Renderer struct {
	brand            config.BrandConfig
	location         *time.Location
	notificationHTML *htmltemplate.Template
	notificationText *texttemplate.Template
	autoReplyHTML    *htmltemplate.Template
}

func NewRenderer(brand config.BrandConfig, timezone string) (*Renderer, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", timezone, err)
	}

	notificationHTML, err := htmltemplate.ParseFS(templateFS, "templates/notification.html")
	if err != nil {
		return nil, fmt.Errorf("parse notification html: %w", err)
	}
	notificationText, err := texttemplate.ParseFS(templateFS, "templates/notification.txt")
	if err != nil {
		return nil, fmt.Errorf("parse notification text: %w", err)
	}
	autoReplyHTML, err := htmltemplate.ParseFS(templateFS, "templates/autoreply.html")
	if err != nil {
		return nil, fmt.Errorf("parse auto-reply html: %w", err)
	}

	return &Renderer{
		brand:            brand,
		location:         loc,
		notificationHTML: notificationHTML,
		notificationText: notificationText,
		autoReplyHTML:    autoReplyHTML,
	}, nil
}

func (r *Renderer) data(sub contact.Submission, receivedAt time.Time) templateData {
	return templateData{
		Brand:           r.brand,
		FullName:        sub.FullName,
		Email:           sub.Email,
		LevelLabel:      contact.LevelLabel(sub.SubjectLevel),
		LevelShortLabel: contact.LevelShortLabel(sub.SubjectLevel),
		Message:         sub.Message,
		MessageHTML:     messageHTML(sub.Message),
		ReceivedAt:      receivedAt.In(r.location).Format(receivedLayout),
	}
}

// Notification is the operator's copy of the enquiry.
func (r *Renderer) Notification(sub contact.Submission, to, from string, receivedAt time.Time) (Message, error) {
	data := r.data(sub, receivedAt)

	var html, text bytes.Buffer
	if err := r.notificationHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render notification html: %w", err)
	}
	if err := r.notificationText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render notification text: %w", err)
	}

	return Message{
		Kind:     constants.MessageNotification,
		To:       to,
		From:     from,
		Subject:  fmt.Sprintf("New Contact: %s - %s", sub.FullName, sub.SubjectLevel),
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}

// AutoReply acknowledges the enquiry to the person who sent it.
func (r *Renderer) AutoReply(sub contact.Submission, from string) (Message, error) {
	var html bytes.Buffer
	if err := r.autoReplyHTML.Execute(&html, r.data(sub, time.Time{})); err != nil {
		return Message{}, fmt.Errorf("render auto-reply html: %w", err)
	}

	return Message{
		Kind:     constants.MessageAutoReply,
		To:       sub.Email,
		From:     from,
		Subject:  fmt.Sprintf("Thank you for contacting %s!", r.brand.Name),
		HTMLBody: html.String(),
	}, nil
}

// messageHTML escapes the message and keeps its line breaks.
func messageHTML(message string) htmltemplate.HTML {
	escaped := htmltemplate.HTMLEscapeString(message)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return htmltemplate.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
