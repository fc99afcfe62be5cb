package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/shopworks/storeapi/internal/logging"
)

// Service sends transactional mail over SMTP.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, frontendURL string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		frontendURL:  frontendURL,
	}
}

// SendConfirmationEmail sends an account confirmation link to the user.
// Designed to be called in a goroutine; failures are the caller's to log.
func (s *Service) SendConfirmationEmail(ctx context.Context, toEmail, confirmationToken string) error {
	logger := logging.GetLoggerFromContext(ctx)

	confirmationLink := fmt.Sprintf("%s/confirm?token=%s", s.frontendURL, confirmationToken)

	subject := "Confirm your email address"
	body, err := renderConfirmationTemplate(confirmationLink)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("confirmation email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Welcome!</h2>
    <p>Thanks for registering. Please confirm your email address to activate your account.</p>
    <p>
        <a href="{{.Link}}" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; display: inline-block;">
            Confirm email
        </a>
    </p>
    <p>Or open this link: {{.Link}}</p>
    <p>The link is valid for 24 hours. If you did not register, you can ignore this message.</p>
</body>
</html>
`))

func renderConfirmationTemplate(link string) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
