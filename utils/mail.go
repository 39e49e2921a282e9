package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
)

type EmailData struct {
	Name        string
	Message     string
	OrderNumber string
	Status      string
	Total       int64
	LogoURL     string
	Link        string
}

type MailSettings struct {
	From        string
	Password    string
	SMTPHost    string
	SMTPAddress string
}

func (m MailSettings) Configured() bool {
	return m.From != "" && m.SMTPAddress != ""
}

func renderEmail(templatePath string, data EmailData) (string, error) {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("template parse error: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return body.String(), nil
}

func SendEmail(settings MailSettings, emailTo string, emailSubject string, data EmailData, templatePath string) error {
	body, err := renderEmail(templatePath, data)
	if err != nil {
		return err
	}

	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		settings.From,
		emailTo,
		emailSubject,
		body,
	)

	auth := smtp.PlainAuth("", settings.From, settings.Password, settings.SMTPHost)
	if err := smtp.SendMail(settings.SMTPAddress, auth, settings.From, []string{emailTo}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
