package mailer

import (
	"fmt"

	"storefront_auth/internal/models"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// * Send отправляет письмо верификации или сброса пароля.
// Тема и текст зависят от назначения токена.
func (m *Mailer) Send(msg models.Message) error {
	const op = "mailer.Send"

	var subject, body string

	switch msg.Purpose {
	case models.PurposePasswordReset:
		subject = "Reset your password"
		body = fmt.Sprintf(
			"Hello %s!\n\n"+
				"We received a request to reset your password. Follow the link to set a new one:\n\n%s\n\n"+
				"The link expires in 1 hour. If you didn't request a reset, ignore this email.\n",
			msg.Name, msg.Link,
		)
	default:
		subject = "Verify your email"
		body = fmt.Sprintf(
			"Hello %s!\n\n"+
				"Thank you for registering. Follow the link to verify your email address:\n\n%s\n\n"+
				"The link expires in 24 hours. If you didn't create an account, ignore this email.\n",
			msg.Name, msg.Link,
		)
	}

	mail := gomail.NewMessage()
	mail.SetHeader("To", msg.Email)
	mail.SetHeader("From", m.From)
	mail.SetHeader("Subject", subject)
	mail.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
